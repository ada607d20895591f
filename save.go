package oscarodin

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/query"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/stringutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

func tableMetadataFor(modelType reflect.Type) (*tags.TableMetadata, error) {
	tableMetadata := tags.TableMetadataFromType(modelType)
	if tableMetadata.GetTableName() == "" {
		return nil, ErrNoTableName
	}
	if tableMetadata.GetPrimaryKeyColumnName() == "" {
		return nil, ErrNoPrimaryKey
	}
	return tableMetadata, nil
}

// Lookup finds the rows of table whose columns match one of keys and returns
// their primary keys by Key. Keys are queried batchSize at a time.
func (p *PersistenceORM) Lookup(ctx context.Context, table *tags.TableMetadata, columns []string, keys [][]interface{}) (map[Key]interface{}, error) {
	found := map[Key]interface{}{}
	pkColumn := table.GetPrimaryKeyColumnName()
	if pkColumn == "" {
		return nil, ErrNoPrimaryKey
	}

	for start := 0; start < len(keys); start += p.batchSize {
		end := start + p.batchSize
		if end > len(keys) {
			end = len(keys)
		}

		sqlString, args, err := query.Lookup(p.dialect, table.GetTableName(), pkColumn, columns, keys[start:end])
		if err != nil {
			return nil, err
		}
		results, err := p.query(ctx, sqlString, args)
		if err != nil {
			return nil, err
		}

		for _, result := range results {
			values := make([]interface{}, 0, len(columns))
			for _, column := range columns {
				values = append(values, result[column])
			}
			found[NewKey(values...)] = result[pkColumn]
		}
	}

	p.logger.Debug("looked up existing rows",
		zap.String("table", table.GetTableName()),
		zap.Int("keys", len(keys)),
		zap.Int("found", len(found)),
	)
	return found, nil
}

// Insert inserts records, all of the same model, and writes the generated
// primary keys back onto them. Records must be pointers.
func (p *PersistenceORM) Insert(ctx context.Context, records []interface{}) error {
	if len(records) == 0 {
		return nil
	}
	modelType, err := modelType(records)
	if err != nil {
		return err
	}
	tableMetadata, err := tableMetadataFor(modelType)
	if err != nil {
		return err
	}

	now := p.now()
	var withKey, withoutKey []reflect.Value
	for _, record := range records {
		if err := p.validate.Struct(record); err != nil {
			return fmt.Errorf("validating %s: %w", modelType.Name(), err)
		}
		value, err := reflectutil.GetStructValue(record)
		if err != nil {
			return err
		}
		if err := setAuditFields(value, tableMetadata, now, true); err != nil {
			return err
		}
		if PrimaryKey(record) != nil {
			withKey = append(withKey, value)
		} else {
			withoutKey = append(withoutKey, value)
		}
	}

	if err := p.insertRows(ctx, tableMetadata, withKey, true); err != nil {
		return err
	}
	if err := p.insertRows(ctx, tableMetadata, withoutKey, false); err != nil {
		return err
	}

	p.logger.Debug("inserted rows",
		zap.String("table", tableMetadata.GetTableName()),
		zap.Int("rows", len(records)),
	)
	return nil
}

func (p *PersistenceORM) insertRows(ctx context.Context, tableMetadata *tags.TableMetadata, values []reflect.Value, includePrimaryKey bool) error {
	if len(values) == 0 {
		return nil
	}

	var fields []tags.FieldMetadata
	for _, field := range tableMetadata.GetFields() {
		if field.IsPrimaryKey() && !includePrimaryKey {
			continue
		}
		fields = append(fields, field)
	}
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, field.GetColumnName())
	}

	batchSize := p.batchSize
	returning := ""
	if !includePrimaryKey {
		if p.dialect.Returning {
			returning = tableMetadata.GetPrimaryKeyColumnName()
		} else {
			// one row per statement so LastInsertId maps to its record
			batchSize = 1
		}
	}

	for start := 0; start < len(values); start += batchSize {
		end := start + batchSize
		if end > len(values) {
			end = len(values)
		}
		chunk := values[start:end]

		rows := make([][]interface{}, 0, len(chunk))
		for _, value := range chunk {
			row := make([]interface{}, 0, len(fields))
			for _, field := range fields {
				row = append(row, reflectutil.Interface(value.Field(field.GetIndex())))
			}
			rows = append(rows, row)
		}

		sqlString, args, err := query.Insert(p.dialect, tableMetadata.GetTableName(), columns, rows, returning)
		if err != nil {
			return err
		}

		switch {
		case includePrimaryKey:
			if _, err := p.exec(ctx, sqlString, args); err != nil {
				return err
			}
			for _, value := range chunk {
				metadata.MarkPersisted(value, true)
			}
		case returning != "":
			results, err := p.query(ctx, sqlString, args)
			if err != nil {
				return err
			}
			if len(results) != len(chunk) {
				return NewQueryError(fmt.Errorf("insert returned %d keys for %d rows", len(results), len(chunk)), sqlString)
			}
			for i, value := range chunk {
				if err := SetPrimaryKey(value.Addr().Interface(), results[i][returning]); err != nil {
					return err
				}
			}
		default:
			result, err := p.exec(ctx, sqlString, args)
			if err != nil {
				return err
			}
			id, err := result.LastInsertId()
			if err != nil {
				return NewQueryError(err, sqlString)
			}
			if err := SetPrimaryKey(chunk[0].Addr().Interface(), id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update writes records back to their rows. fields limits the columns written
// (field or column names); empty means every column. Records decoded with
// defined fields only write the fields that were present.
func (p *PersistenceORM) Update(ctx context.Context, records []interface{}, fields []string) error {
	now := p.now()
	for _, record := range records {
		value, err := reflectutil.GetStructValue(record)
		if err != nil {
			return err
		}
		tableMetadata, err := tableMetadataFor(value.Type())
		if err != nil {
			return err
		}
		id := PrimaryKey(record)
		if id == nil {
			return fmt.Errorf("updating %s: %w", value.Type().Name(), ErrNoPrimaryKey)
		}
		if err := p.validate.Struct(record); err != nil {
			return fmt.Errorf("validating %s: %w", value.Type().Name(), err)
		}
		if err := setAuditFields(value, tableMetadata, now, false); err != nil {
			return err
		}

		columns, columnValues := columnsToUpdate(value, tableMetadata, fields)
		if len(columns) == 0 {
			continue
		}

		sqlString, args, err := query.Update(p.dialect, tableMetadata.GetTableName(), columns, columnValues, tableMetadata.GetPrimaryKeyColumnName(), id)
		if err != nil {
			return err
		}
		result, err := p.exec(ctx, sqlString, args)
		if err != nil {
			return err
		}
		if p.dialect.MatchedRows {
			if affected, err := result.RowsAffected(); err == nil && affected == 0 {
				return fmt.Errorf("updating %s %v: %w", value.Type().Name(), id, ModelNotFoundError)
			}
		}
		metadata.MarkPersisted(value, true)
	}

	if len(records) > 0 {
		p.logger.Debug("updated rows", zap.Int("rows", len(records)))
	}
	return nil
}

// Save updates record when it is persisted and inserts it otherwise
func (p *PersistenceORM) Save(ctx context.Context, record interface{}) error {
	if IsPersisted(record) {
		return p.Update(ctx, []interface{}{record}, nil)
	}
	return p.Insert(ctx, []interface{}{record})
}

func columnsToUpdate(value reflect.Value, tableMetadata *tags.TableMetadata, fields []string) ([]string, []interface{}) {
	// nil defined fields means the record was not decoded from a payload
	definedFields := metadata.GetMetadataFromStruct(value).DefinedFields

	var columns []string
	var values []interface{}
	for _, field := range tableMetadata.GetFields() {
		if !field.IncludeInUpdate() {
			continue
		}
		if field.GetAudit() != tags.AuditUpdatedAt {
			if len(fields) > 0 &&
				!stringutil.StringSliceContainsKey(fields, field.GetName()) &&
				!stringutil.StringSliceContainsKey(fields, field.GetColumnName()) {
				continue
			}
			if definedFields != nil && !stringutil.StringSliceContainsKey(definedFields, field.GetName()) {
				continue
			}
		}
		columns = append(columns, field.GetColumnName())
		values = append(values, reflectutil.Interface(value.Field(field.GetIndex())))
	}
	return columns, values
}

func setAuditFields(value reflect.Value, tableMetadata *tags.TableMetadata, now time.Time, inserting bool) error {
	for _, field := range tableMetadata.GetFields() {
		fieldValue := value.Field(field.GetIndex())
		switch field.GetAudit() {
		case tags.AuditCreatedAt:
			if !inserting || !reflectutil.IsZeroValue(fieldValue) {
				continue
			}
		case tags.AuditUpdatedAt:
		default:
			continue
		}
		if err := reflectutil.SetValue(fieldValue, now); err != nil {
			return err
		}
	}
	return nil
}
