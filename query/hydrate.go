package query

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

/*
Scan reads every row into a map of column name to value and closes rows.
[]byte values are kept as they are; SetValue converts them when a model is
hydrated.
*/
func Scan(rows *sql.Rows) ([]map[string]interface{}, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]interface{}{}

	for rows.Next() {
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		m := make(map[string]interface{}, len(cols))
		for i, colName := range cols {
			m[colName] = columns[i]
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

/*
Hydrate takes the scanned rows of a select built with Table and pops the
columns of the table aliased alias into new models of modelType. The result
holds one pointer per row, in row order.
*/
func Hydrate(modelType reflect.Type, alias string, aliasMap map[string]FieldDescriptor, rows []map[string]interface{}) ([]interface{}, error) {
	modelType = reflectutil.StructType(modelType)
	meta := tags.TableMetadataFromType(modelType)

	models := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		values := map[string]interface{}{}
		for aliased, value := range row {
			descriptor, ok := aliasMap[aliased]
			if !ok || descriptor.Alias != alias {
				continue
			}
			values[descriptor.Field] = value
		}

		model, err := HydrateModel(modelType, meta, values)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}

	return models, nil
}

/*
HydrateModel takes the values for one record, keyed by column, and turns it
into a pointer to a new struct based on the oscar tags
*/
func HydrateModel(modelType reflect.Type, meta *tags.TableMetadata, values map[string]interface{}) (interface{}, error) {
	model := reflect.New(modelType)
	for _, field := range meta.GetFields() {
		value, hasValue := values[field.GetColumnName()]
		if !hasValue || value == nil {
			continue
		}
		if err := reflectutil.SetValue(model.Elem().Field(field.GetIndex()), value); err != nil {
			return nil, fmt.Errorf("hydrating %s.%s: %w", modelType.Name(), field.GetName(), err)
		}
	}
	return model.Interface(), nil
}
