/*
Package oscarodintest provides an in-memory oscarodin.ORM for testing code
that persists through oscarodin.
*/
package oscarodintest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/stringutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

// LookupCall records the arguments of one Lookup
type LookupCall struct {
	Table   string
	Columns []string
	Keys    [][]interface{}
}

// MockORM can be used to test client functionality that calls oscarodin.ORM
// behavior. Inserted records are kept per table, get sequential ids and are
// found by later lookups, so repeated imports behave like a database.
type MockORM struct {
	LookupError      error
	LookupCalledWith []LookupCall

	InsertError      error
	InsertCalledWith [][]interface{}

	UpdateError            error
	UpdateCalledWith       [][]interface{}
	UpdateFieldsCalledWith [][]string

	SaveError      error
	SaveCalledWith []interface{}

	FilterModelReturns    []interface{}
	FilterModelError      error
	FilterModelCalledWith []oscarodin.FilterRequest

	BeginError  error
	Committed   int
	RolledBack  int
	transaction bool

	lastID int64
	rows   map[string][]interface{}
}

var _ oscarodin.ORM = &MockORM{}

// ErrNoTransaction is returned by Commit and Rollback without Begin
var ErrNoTransaction = errors.New("no transaction started on mock")

// Store adds existing rows, as if they were inserted earlier. Records without
// a primary key get the next id.
func (morm *MockORM) Store(records ...interface{}) error {
	for _, record := range records {
		if err := morm.store(record); err != nil {
			return err
		}
	}
	return nil
}

func (morm *MockORM) store(record interface{}) error {
	value, err := reflectutil.GetStructValue(record)
	if err != nil {
		return err
	}
	if morm.rows == nil {
		morm.rows = map[string][]interface{}{}
	}

	if id := oscarodin.PrimaryKey(record); id != nil {
		if n, ok := id.(int64); ok && n > morm.lastID {
			morm.lastID = n
		}
		if err := oscarodin.SetPrimaryKey(record, id); err != nil {
			return err
		}
	} else {
		morm.lastID++
		if err := oscarodin.SetPrimaryKey(record, morm.lastID); err != nil {
			return err
		}
	}

	table := tags.TableMetadataFromType(value.Type()).GetTableName()
	morm.rows[table] = append(morm.rows[table], record)
	return nil
}

// Rows returns the records stored for table
func (morm *MockORM) Rows(table string) []interface{} {
	return morm.rows[table]
}

// Lookup finds stored records by the given columns
func (morm *MockORM) Lookup(ctx context.Context, table *tags.TableMetadata, columns []string, keys [][]interface{}) (map[oscarodin.Key]interface{}, error) {
	morm.LookupCalledWith = append(morm.LookupCalledWith, LookupCall{
		Table:   table.GetTableName(),
		Columns: columns,
		Keys:    keys,
	})
	if morm.LookupError != nil {
		return nil, morm.LookupError
	}

	wanted := map[oscarodin.Key]bool{}
	for _, key := range keys {
		wanted[oscarodin.NewKey(key...)] = true
	}

	found := map[oscarodin.Key]interface{}{}
	for _, record := range morm.rows[table.GetTableName()] {
		value, _ := reflectutil.GetStructValue(record)
		values := make([]interface{}, 0, len(columns))
		for _, column := range columns {
			field, ok := table.GetFieldByColumn(column)
			if !ok {
				return nil, errors.New("unknown column " + column)
			}
			values = append(values, reflectutil.Interface(value.Field(field.GetIndex())))
		}
		key := oscarodin.NewKey(values...)
		if wanted[key] {
			found[key] = oscarodin.PrimaryKey(record)
		}
	}
	return found, nil
}

// Insert stores records and gives them sequential ids
func (morm *MockORM) Insert(ctx context.Context, records []interface{}) error {
	morm.InsertCalledWith = append(morm.InsertCalledWith, records)
	if morm.InsertError != nil {
		return morm.InsertError
	}
	return morm.Store(records...)
}

// Update records the call values and copies the updatable fields of records
// onto the stored rows with the same primary key. Fields are model field or
// column names; none means every updatable field.
func (morm *MockORM) Update(ctx context.Context, records []interface{}, fields []string) error {
	morm.UpdateCalledWith = append(morm.UpdateCalledWith, records)
	morm.UpdateFieldsCalledWith = append(morm.UpdateFieldsCalledWith, fields)
	if morm.UpdateError != nil {
		return morm.UpdateError
	}
	for _, record := range records {
		if err := morm.update(record, fields); err != nil {
			return err
		}
	}
	return nil
}

func (morm *MockORM) update(record interface{}, fields []string) error {
	value, err := reflectutil.GetStructValue(record)
	if err != nil {
		return err
	}
	table := tags.TableMetadataFromType(value.Type())
	id := oscarodin.NewKey(oscarodin.PrimaryKey(record))

	for _, stored := range morm.rows[table.GetTableName()] {
		if stored == record || oscarodin.NewKey(oscarodin.PrimaryKey(stored)) != id {
			continue
		}
		storedValue, _ := reflectutil.GetStructValue(stored)
		for _, field := range table.GetFields() {
			if !field.IncludeInUpdate() {
				continue
			}
			if len(fields) > 0 &&
				!stringutil.StringSliceContainsKey(fields, field.GetName()) &&
				!stringutil.StringSliceContainsKey(fields, field.GetColumnName()) {
				continue
			}
			storedValue.Field(field.GetIndex()).Set(value.Field(field.GetIndex()))
		}
	}
	return nil
}

// Save inserts records that are not persisted and records the call value
func (morm *MockORM) Save(ctx context.Context, record interface{}) error {
	morm.SaveCalledWith = append(morm.SaveCalledWith, record)
	if morm.SaveError != nil {
		return morm.SaveError
	}
	if oscarodin.IsPersisted(record) {
		return nil
	}
	return morm.store(record)
}

// FilterModel returns FilterModelReturns when set. Otherwise it returns the
// stored records matching the non-zero fields of the filter model and the
// field filters, with their associations set from the stored rows.
func (morm *MockORM) FilterModel(ctx context.Context, request oscarodin.FilterRequest) ([]interface{}, error) {
	morm.FilterModelCalledWith = append(morm.FilterModelCalledWith, request)
	if morm.FilterModelError != nil {
		return nil, morm.FilterModelError
	}
	if morm.FilterModelReturns != nil {
		return morm.FilterModelReturns, nil
	}

	filterValue, err := reflectutil.GetStructValue(request.FilterModel)
	if err != nil {
		return nil, err
	}
	table := tags.TableMetadataFromType(filterValue.Type())

	wheres := map[string]interface{}{}
	for _, field := range table.GetFields() {
		fieldValue := filterValue.Field(field.GetIndex())
		if !reflectutil.IsZeroValue(fieldValue) {
			wheres[field.GetName()] = reflectutil.Interface(fieldValue)
		}
	}
	for _, filter := range request.FieldFilters {
		field, ok := table.GetField(filter.FieldName)
		if !ok {
			if field, ok = table.GetFieldByColumn(filter.FieldName); !ok {
				return nil, errors.New("unknown field " + filter.FieldName)
			}
		}
		wheres[field.GetName()] = filter.FilterValue
	}

	results := []interface{}{}
	for _, record := range morm.rows[table.GetTableName()] {
		if matches(record, table, wheres) {
			results = append(results, record)
		}
	}
	for _, association := range request.Associations {
		if err := morm.associate(results, table, strings.Split(association, ".")); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// associate sets the field named by the head of path on every record, then
// follows the rest of path from the records it set
func (morm *MockORM) associate(records []interface{}, table *tags.TableMetadata, path []string) error {
	name := path[0]
	var related []interface{}
	var relatedTable *tags.TableMetadata

	if child := table.GetChildField(name); child != nil {
		relatedTable = tags.TableMetadataFromType(child.FieldType.Elem())
		for _, record := range records {
			value, err := reflectutil.GetStructValue(record)
			if err != nil {
				return err
			}
			field := value.FieldByName(child.FieldName)
			slice := reflect.MakeSlice(field.Type(), 0, 0)
			wheres := map[string]interface{}{child.ForeignKey: oscarodin.PrimaryKey(record)}
			for _, row := range morm.rows[relatedTable.GetTableName()] {
				if !matches(row, relatedTable, wheres) {
					continue
				}
				rowValue := reflect.ValueOf(row)
				if field.Type().Elem().Kind() != reflect.Ptr {
					rowValue = rowValue.Elem()
				}
				slice = reflect.Append(slice, rowValue)
				related = append(related, row)
			}
			field.Set(slice)
		}
	} else if foreignKey := table.GetForeignKeyFieldFromRelation(name); foreignKey != nil && foreignKey.RelatedType != nil {
		relatedTable = tags.TableMetadataFromType(foreignKey.RelatedType)
		for _, record := range records {
			value, err := reflectutil.GetStructValue(record)
			if err != nil {
				return err
			}
			id := reflectutil.Interface(value.FieldByName(foreignKey.FieldName))
			if id == nil {
				continue
			}
			for _, row := range morm.rows[relatedTable.GetTableName()] {
				if oscarodin.NewKey(oscarodin.PrimaryKey(row)) != oscarodin.NewKey(id) {
					continue
				}
				field := value.FieldByName(name)
				rowValue := reflect.ValueOf(row)
				if field.Kind() != reflect.Ptr {
					rowValue = rowValue.Elem()
				}
				field.Set(rowValue)
				related = append(related, row)
				break
			}
		}
	} else {
		return fmt.Errorf("%s is not an association of %s", name, table.GetModelType().Name())
	}

	if len(path) == 1 {
		return nil
	}
	return morm.associate(related, relatedTable, path[1:])
}

func matches(record interface{}, table *tags.TableMetadata, wheres map[string]interface{}) bool {
	value, _ := reflectutil.GetStructValue(record)
	for name, want := range wheres {
		field, _ := table.GetField(name)
		got := oscarodin.NewKey(reflectutil.Interface(value.Field(field.GetIndex())))

		wantValue := reflect.ValueOf(want)
		if wantValue.Kind() != reflect.Slice || wantValue.Type().Elem().Kind() == reflect.Uint8 {
			if got != oscarodin.NewKey(want) {
				return false
			}
			continue
		}
		found := false
		for i := 0; i < wantValue.Len(); i++ {
			if got == oscarodin.NewKey(wantValue.Index(i).Interface()) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Begin opens a mock transaction
func (morm *MockORM) Begin(ctx context.Context) error {
	if morm.BeginError != nil {
		return morm.BeginError
	}
	morm.transaction = true
	return nil
}

// Commit closes the mock transaction
func (morm *MockORM) Commit() error {
	if !morm.transaction {
		return ErrNoTransaction
	}
	morm.transaction = false
	morm.Committed++
	return nil
}

// Rollback closes the mock transaction. Stored rows are kept.
func (morm *MockORM) Rollback() error {
	if !morm.transaction {
		return ErrNoTransaction
	}
	morm.transaction = false
	morm.RolledBack++
	return nil
}

// InTransaction reports whether Begin was called without Commit or Rollback
func (morm *MockORM) InTransaction() bool {
	return morm.transaction
}
