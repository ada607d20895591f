package oscarodin

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

const separator = "|"

// Key is the comparable encoding of a natural key tuple. A single field key
// is encoded as a one element tuple, so single and composite keys compare the
// same way.
type Key string

// NewKey encodes values as a Key. Values are normalized first, so an int
// read from a record and the int64 returned by the database produce the same
// Key.
func NewKey(values ...interface{}) Key {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		normalized, ok := normalizeKeyValue(value)
		if !ok {
			parts = append(parts, "NULL")
			continue
		}
		parts = append(parts, strconv.Quote(normalized))
	}
	return Key(strings.Join(parts, separator))
}

func normalizeKeyValue(value interface{}) (string, bool) {
	v := reflect.ValueOf(value)
	for v.IsValid() && v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", false
	}

	switch typed := v.Interface().(type) {
	case []byte:
		return string(typed), true
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return typed.String(), true
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.String:
		return v.String(), true
	}
	return fmt.Sprint(v.Interface()), true
}

// KeyField is one column of a natural key and the accessor reading its value
// from a record of type *T.
type KeyField[T any] struct {
	Column string
	Get    func(*T) interface{}
}

// Column binds a column name to the accessor reading it from *T
func Column[T any](column string, get func(*T) interface{}) KeyField[T] {
	return KeyField[T]{Column: column, Get: get}
}

type keyField struct {
	column string
	get    func(record interface{}) (interface{}, error)
}

// Identifiers is the natural key configuration table: for every model type
// the ordered columns, with accessors, that identify an existing row.
type Identifiers struct {
	keys map[reflect.Type][]keyField
}

// NewIdentifiers returns an empty table
func NewIdentifiers() *Identifiers {
	return &Identifiers{keys: map[reflect.Type][]keyField{}}
}

// Register sets the natural key of model type T, replacing any previous one.
// Registering no fields removes the key.
func Register[T any](ids *Identifiers, fields ...KeyField[T]) *Identifiers {
	model := reflect.TypeOf((*T)(nil)).Elem()
	if len(fields) == 0 {
		delete(ids.keys, model)
		return ids
	}

	erased := make([]keyField, 0, len(fields))
	for _, field := range fields {
		get := field.Get
		erased = append(erased, keyField{
			column: field.Column,
			get: func(record interface{}) (interface{}, error) {
				typed, ok := record.(*T)
				if !ok {
					return nil, fmt.Errorf("expected record of type *%s, got %T", model, record)
				}
				return get(typed), nil
			},
		})
	}
	ids.keys[model] = erased
	return ids
}

// IdentifiersFromTags builds a table from the lookup tags of the given models
//
//	ids := IdentifiersFromTags(models.Product{}, models.Category{})
func IdentifiersFromTags(models ...interface{}) *Identifiers {
	ids := NewIdentifiers()
	for _, model := range models {
		modelType := reflectutil.StructType(reflect.TypeOf(model))
		if modelType == nil || modelType.Kind() != reflect.Struct {
			continue
		}
		lookups := tags.TableMetadataFromType(modelType).GetLookups()
		if len(lookups) == 0 {
			continue
		}
		fields := make([]keyField, 0, len(lookups))
		for _, lookup := range lookups {
			fieldName := lookup.MatchObjectProperty
			fields = append(fields, keyField{
				column: lookup.MatchDBColumn,
				get: func(record interface{}) (interface{}, error) {
					value, err := reflectutil.GetStructValue(record)
					if err != nil {
						return nil, err
					}
					if value.Type() != modelType {
						return nil, fmt.Errorf("expected record of type *%s, got %T", modelType, record)
					}
					return reflectutil.Interface(value.FieldByName(fieldName)), nil
				},
			})
		}
		ids.keys[modelType] = fields
	}
	return ids
}

// Has reports whether a natural key is registered for model
func (ids *Identifiers) Has(model reflect.Type) bool {
	if ids == nil {
		return false
	}
	_, ok := ids.keys[reflectutil.StructType(model)]
	return ok
}

// Columns returns the natural key columns of model, in order
func (ids *Identifiers) Columns(model reflect.Type) []string {
	if ids == nil {
		return nil
	}
	fields := ids.keys[reflectutil.StructType(model)]
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, field.column)
	}
	return columns
}

// Values reads the natural key tuple of record, dereferencing pointers. ok is
// false when the record's model has no registered key.
func (ids *Identifiers) Values(record interface{}) (values []interface{}, ok bool, err error) {
	if ids == nil {
		return nil, false, nil
	}
	fields, ok := ids.keys[reflectutil.StructType(reflect.TypeOf(record))]
	if !ok {
		return nil, false, nil
	}
	values = make([]interface{}, 0, len(fields))
	for _, field := range fields {
		value, err := field.get(record)
		if err != nil {
			return nil, true, err
		}
		// nil pointers become untyped nil so lookups can match NULL
		values = append(values, reflectutil.Interface(reflect.ValueOf(value)))
	}
	return values, true, nil
}

// KeyOf returns the encoded natural key of record
func (ids *Identifiers) KeyOf(record interface{}) (Key, bool, error) {
	values, ok, err := ids.Values(record)
	if !ok || err != nil {
		return "", ok, err
	}
	return NewKey(values...), true, nil
}
