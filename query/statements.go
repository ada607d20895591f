package query

import (
	"errors"
	"fmt"

	sql "github.com/Masterminds/squirrel"
)

// ErrNoValues is returned when a statement is built without any row
var ErrNoValues = errors.New("statement needs at least one row of values")

/*
Lookup selects the primary key and the key columns of every row whose key
columns match one of the tuples in keys. A single key column uses an IN check:

	SELECT id, upc FROM catalogue_product WHERE upc IN ($1,$2)

Composite keys are OR'ed tuples:

	SELECT id, product_id, attribute_id FROM catalogue_productattributevalue
	WHERE ((product_id = $1 AND attribute_id = $2) OR (product_id = $3 AND attribute_id = $4))
*/
func Lookup(dialect Dialect, table string, primaryKey string, columns []string, keys [][]interface{}) (string, []interface{}, error) {
	if len(keys) == 0 {
		return "", nil, ErrNoValues
	}

	bld := sql.Select(append([]string{primaryKey}, columns...)...).
		PlaceholderFormat(dialect.Placeholder).
		From(table)

	if len(columns) == 1 {
		values := make([]interface{}, 0, len(keys))
		var hasNull bool
		for _, key := range keys {
			if key[0] == nil {
				hasNull = true
				continue
			}
			values = append(values, key[0])
		}
		switch {
		case hasNull && len(values) > 0:
			bld = bld.Where(sql.Or{sql.Eq{columns[0]: values}, sql.Eq{columns[0]: nil}})
		case hasNull:
			bld = bld.Where(sql.Eq{columns[0]: nil})
		default:
			bld = bld.Where(sql.Eq{columns[0]: values})
		}
		return bld.ToSql()
	}

	tuples := make(sql.Or, 0, len(keys))
	for _, key := range keys {
		if len(key) != len(columns) {
			return "", nil, fmt.Errorf("key has %d values for %d columns", len(key), len(columns))
		}
		// one Eq per column keeps the column order stable
		tuple := make(sql.And, 0, len(columns))
		for i, column := range columns {
			tuple = append(tuple, sql.Eq{column: key[i]})
		}
		tuples = append(tuples, tuple)
	}
	return bld.Where(tuples).ToSql()
}

/*
Insert builds a multi-row insert. When returning is set the statement returns
that column for every inserted row.
*/
func Insert(dialect Dialect, table string, columns []string, rows [][]interface{}, returning string) (string, []interface{}, error) {
	if len(rows) == 0 {
		return "", nil, ErrNoValues
	}

	bld := sql.Insert(table).
		PlaceholderFormat(dialect.Placeholder).
		Columns(columns...)

	for _, row := range rows {
		bld = bld.Values(row...)
	}

	if returning != "" {
		bld = bld.Suffix(fmt.Sprintf("RETURNING \"%s\"", returning))
	}

	return bld.ToSql()
}

/*
Update builds an update of a single row identified by its primary key
*/
func Update(dialect Dialect, table string, columns []string, values []interface{}, primaryKey string, id interface{}) (string, []interface{}, error) {
	if len(columns) == 0 {
		return "", nil, ErrNoValues
	}
	if len(columns) != len(values) {
		return "", nil, fmt.Errorf("update has %d values for %d columns", len(values), len(columns))
	}

	bld := sql.Update(table).PlaceholderFormat(dialect.Placeholder)
	for i, column := range columns {
		bld = bld.Set(column, values[i])
	}

	return bld.Where(sql.Eq{primaryKey: id}).ToSql()
}
