/*
Package metadata holds the per-record state that oscar models and resources
carry alongside their data.
*/
package metadata

import (
	"reflect"
)

// Metadata is a field type that can be easily detected by oscarodin.
// Used as a field on a model struct, and table metadata can be added as struct tags.
// Currently supported tags:
//
//	tablename
type Metadata struct {
	// DefinedFields lists the fields present in the decoded payload. nil means
	// every field is defined.
	DefinedFields []string
	// Persisted is set once the record is known to exist in the database, so a
	// save updates it instead of inserting it.
	Persisted bool
}

var metadataType = reflect.TypeOf(Metadata{})

// AddDefinedField records fieldName as present in the payload
func AddDefinedField(metadataValue reflect.Value, fieldName string) {
	if metadataValue.IsValid() {
		definedFields := metadataValue.FieldByName("DefinedFields")
		definedFields.Set(reflect.Append(definedFields, reflect.ValueOf(fieldName)))
	}
}

// InitializeDefinedFields resets the defined fields to an empty, non-nil slice
func InitializeDefinedFields(metadataValue reflect.Value) {
	if metadataValue.IsValid() {
		definedFields := metadataValue.FieldByName("DefinedFields")
		definedFields.Set(reflect.ValueOf([]string{}))
	}
}

// HasDefinedFields reports whether defined fields tracking has started
func HasDefinedFields(metadataValue reflect.Value) bool {
	if !metadataValue.IsValid() {
		return false
	}
	return !metadataValue.FieldByName("DefinedFields").IsNil()
}

// GetMetadataValue returns the Metadata field of a struct value, or the zero
// reflect.Value if the struct has none
func GetMetadataValue(model reflect.Value) reflect.Value {
	var metadataValue reflect.Value
	model = reflect.Indirect(model)
	if model.Kind() != reflect.Struct {
		return metadataValue
	}
	for i := 0; i < model.Type().NumField(); i++ {
		field := model.Type().Field(i)
		if field.Type == metadataType {
			metadataValue = model.Field(i)
			break
		}
	}
	return metadataValue
}

// GetMetadataFromStruct returns a copy of the Metadata carried by model
func GetMetadataFromStruct(model reflect.Value) Metadata {
	var m Metadata
	metadataValue := GetMetadataValue(model)
	if metadataValue.IsValid() && metadataValue.CanInterface() {
		m = metadataValue.Interface().(Metadata)
	}
	return m
}

// MarkPersisted flags the record behind model as an existing row. model must
// be addressable (a pointer to a struct).
func MarkPersisted(model reflect.Value, persisted bool) {
	metadataValue := GetMetadataValue(model)
	if metadataValue.IsValid() && metadataValue.CanSet() {
		metadataValue.FieldByName("Persisted").SetBool(persisted)
	}
}

// IsPersisted reports whether model was marked as an existing row
func IsPersisted(model reflect.Value) bool {
	return GetMetadataFromStruct(model).Persisted
}
