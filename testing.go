package oscarodin

import (
	"database/sql/driver"
	"regexp"
	"strconv"
	"strings"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MakeNowJust/heredoc"

	"github.com/samar-hassan/django-oscar-odin/query"
)

// MockTime is the clock of ORMs returned by NewMock, so audit columns can be
// expected exactly
var MockTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// FmtSQL collapses a heredoc statement onto one line
func FmtSQL(sql string) string {
	return strings.Join(strings.Fields(heredoc.Doc(sql)), " ")
}

// FmtSQLRegex quotes a statement for sqlmock's regexp matcher
func FmtSQLRegex(sql string) string {
	return "^" + regexp.QuoteMeta(FmtSQL(sql)) + "$"
}

// ExpectationHelper describes the statements issued against one table
type ExpectationHelper struct {
	TableName     string
	PrimaryKey    string
	LookupColumns []string
	DBColumns     []string
}

func (expect ExpectationHelper) primaryKey() string {
	if expect.PrimaryKey == "" {
		return "id"
	}
	return expect.PrimaryKey
}

// NewMock returns a postgres ORM backed by sqlmock, clocked at MockTime
func NewMock(opts ...Option) (*PersistenceORM, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	defaults := []Option{
		WithDB(db),
		WithDialect(query.Postgres),
		WithClock(func() time.Time { return MockTime }),
	}
	return New(append(defaults, opts...)...), mock, nil
}

func placeholders(start, count int) []string {
	params := make([]string, 0, count)
	for i := 0; i < count; i++ {
		params = append(params, "$"+strconv.Itoa(start+i))
	}
	return params
}

// ExpectLookup mocks the natural key lookup of keys. found holds the rows
// returned, primary key first and then the lookup columns.
func ExpectLookup(mock sqlmock.Sqlmock, expect ExpectationHelper, keys [][]driver.Value, found [][]driver.Value) {
	returnRows := sqlmock.NewRows(append([]string{expect.primaryKey()}, expect.LookupColumns...))
	for _, row := range found {
		returnRows.AddRow(row...)
	}

	var where string
	var expectedArgs []driver.Value
	if len(expect.LookupColumns) == 1 {
		for _, key := range keys {
			expectedArgs = append(expectedArgs, key[0])
		}
		where = expect.LookupColumns[0] + " IN (" + strings.Join(placeholders(1, len(keys)), ",") + ")"
	} else {
		tuples := []string{}
		index := 1
		for _, key := range keys {
			conditions := []string{}
			for i, column := range expect.LookupColumns {
				conditions = append(conditions, column+" = $"+strconv.Itoa(index))
				expectedArgs = append(expectedArgs, key[i])
				index++
			}
			tuples = append(tuples, "("+strings.Join(conditions, " AND ")+")")
		}
		where = "(" + strings.Join(tuples, " OR ") + ")"
	}

	expectSQL := `
		SELECT ` + strings.Join(append([]string{expect.primaryKey()}, expect.LookupColumns...), ", ") + `
		FROM ` + expect.TableName + `
		WHERE ` + where

	mock.ExpectQuery(FmtSQLRegex(expectSQL)).WithArgs(expectedArgs...).WillReturnRows(returnRows)
}

// ExpectInsert mocks a multi-row insert of rows returning ids
func ExpectInsert(mock sqlmock.Sqlmock, expect ExpectationHelper, rows [][]driver.Value, ids ...int64) {
	valueStrings := []string{}
	expectedArgs := []driver.Value{}
	index := 1
	for _, row := range rows {
		valueStrings = append(valueStrings, "("+strings.Join(placeholders(index, len(row)), ",")+")")
		expectedArgs = append(expectedArgs, row...)
		index += len(row)
	}

	returnRows := sqlmock.NewRows([]string{expect.primaryKey()})
	for _, id := range ids {
		returnRows.AddRow(id)
	}

	expectSQL := `
		INSERT INTO ` + expect.TableName + `
		(` + strings.Join(expect.DBColumns, ",") + `)
		VALUES ` + strings.Join(valueStrings, ",") + ` RETURNING "` + expect.primaryKey() + `"`

	mock.ExpectQuery(FmtSQLRegex(expectSQL)).WithArgs(expectedArgs...).WillReturnRows(returnRows)
}

// ExpectUpdate mocks the update of the row with primary key id
func ExpectUpdate(mock sqlmock.Sqlmock, expect ExpectationHelper, values []driver.Value, id driver.Value) driver.Result {
	setStrings := []string{}
	for i, column := range expect.DBColumns {
		setStrings = append(setStrings, column+" = $"+strconv.Itoa(i+1))
	}

	expectSQL := `
		UPDATE ` + expect.TableName + ` SET ` + strings.Join(setStrings, ", ") + `
		WHERE ` + expect.primaryKey() + ` = $` + strconv.Itoa(len(expect.DBColumns)+1)

	result := sqlmock.NewResult(0, 1)
	mock.ExpectExec(FmtSQLRegex(expectSQL)).WithArgs(append(values, id)...).WillReturnResult(result)
	return result
}
