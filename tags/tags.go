/*
Package tags generates table metadata by reading oscar struct tag annotations

	type Product struct {
		Metadata       metadata.Metadata `oscar:"tablename=catalogue_product"`
		ID             int64             `oscar:"primary_key,column=id"`
		UPC            string            `oscar:"lookup,column=upc"`
		ProductClassID *int64            `oscar:"foreign_key,related=ProductClass,column=product_class_id"`
		ProductClass   *ProductClass
		Images         []*ProductImage   `oscar:"child,foreign_key=ProductID"`
		DateCreated    time.Time         `oscar:"column=date_created,audit=created_at"`
	}
*/
package tags

import (
	"reflect"
	"strings"

	"github.com/samar-hassan/django-oscar-odin/metadata"
)

// TagKey is the struct tag read by this package
const TagKey = "oscar"

// Audit values understood by the audit tag
const (
	AuditCreatedAt = "created_at"
	AuditUpdatedAt = "updated_at"
)

// Lookup structure
type Lookup struct {
	MatchDBColumn       string
	MatchObjectProperty string
}

// Child structure
type Child struct {
	FieldName  string
	FieldType  reflect.Type
	ForeignKey string
}

// ForeignKey structure
type ForeignKey struct {
	FieldName        string
	KeyColumn        string
	RelatedFieldName string
	RelatedType      reflect.Type
	Required         bool
}

// FieldMetadata structure
type FieldMetadata struct {
	name         string
	index        int
	isPrimaryKey bool
	columnName   string
	audit        string
}

// IncludeInUpdate reports whether the column may be written by an UPDATE
func (fm FieldMetadata) IncludeInUpdate() bool {
	return !fm.isPrimaryKey && fm.audit != AuditCreatedAt
}

// GetName function
func (fm FieldMetadata) GetName() string {
	return fm.name
}

// GetIndex returns the position of the field in its struct
func (fm FieldMetadata) GetIndex() int {
	return fm.index
}

// GetColumnName function
func (fm FieldMetadata) GetColumnName() string {
	return fm.columnName
}

// GetAudit function
func (fm FieldMetadata) GetAudit() string {
	return fm.audit
}

// IsPrimaryKey function
func (fm FieldMetadata) IsPrimaryKey() bool {
	return fm.isPrimaryKey
}

// TableMetadata structure
type TableMetadata struct {
	modelType       reflect.Type
	tableName       string
	primaryKeyField string
	fields          map[string]FieldMetadata
	fieldOrder      []string
	lookups         []Lookup
	foreignKeys     []ForeignKey
	children        []Child
}

// GetModelType returns the struct type the metadata was read from
func (tm TableMetadata) GetModelType() reflect.Type {
	return tm.modelType
}

// GetTableName gets the name of the table
func (tm TableMetadata) GetTableName() string {
	return tm.tableName
}

// GetLookups function
func (tm TableMetadata) GetLookups() []Lookup {
	return tm.lookups
}

// GetForeignKeys function
func (tm TableMetadata) GetForeignKeys() []ForeignKey {
	// Clone the foreign keys, callers must not mutate ours
	keys := make([]ForeignKey, len(tm.foreignKeys))
	copy(keys, tm.foreignKeys)
	return keys
}

// GetChildField function
func (tm TableMetadata) GetChildField(childName string) *Child {
	for _, child := range tm.children {
		if child.FieldName == childName {
			return &child
		}
	}
	return nil
}

// GetForeignKeyFieldFromRelation function
func (tm TableMetadata) GetForeignKeyFieldFromRelation(relationName string) *ForeignKey {
	for _, foreignKey := range tm.foreignKeys {
		if foreignKey.RelatedFieldName == relationName {
			return &foreignKey
		}
	}
	return nil
}

// GetFields returns the fields in the order they appear in the struct
func (tm TableMetadata) GetFields() []FieldMetadata {
	fields := make([]FieldMetadata, 0, len(tm.fieldOrder))
	for _, key := range tm.fieldOrder {
		fields = append(fields, tm.fields[key])
	}
	return fields
}

// GetField returns the metadata of a single field
func (tm TableMetadata) GetField(fieldName string) (FieldMetadata, bool) {
	field, ok := tm.fields[fieldName]
	return field, ok
}

// GetFieldByColumn returns the metadata of the field stored in column
func (tm TableMetadata) GetFieldByColumn(column string) (FieldMetadata, bool) {
	for _, key := range tm.fieldOrder {
		if tm.fields[key].columnName == column {
			return tm.fields[key], true
		}
	}
	return FieldMetadata{}, false
}

// GetColumnNames gets the column names
func (tm TableMetadata) GetColumnNames() []string {
	columnNames := []string{}
	for _, field := range tm.GetFields() {
		columnNames = append(columnNames, field.columnName)
	}
	return columnNames
}

// GetPrimaryKeyMetadata function
func (tm TableMetadata) GetPrimaryKeyMetadata() *FieldMetadata {
	field, ok := tm.fields[tm.primaryKeyField]
	if ok {
		return &field
	}
	return nil
}

// GetPrimaryKeyColumnName function
func (tm TableMetadata) GetPrimaryKeyColumnName() string {
	field := tm.GetPrimaryKeyMetadata()
	if field != nil {
		return field.columnName
	}
	return ""
}

// GetPrimaryKeyFieldName function
func (tm TableMetadata) GetPrimaryKeyFieldName() string {
	field := tm.GetPrimaryKeyMetadata()
	if field != nil {
		return field.name
	}
	return ""
}

// HasField reports whether the model maps a field or column with this name
func (tm TableMetadata) HasField(name string) bool {
	if _, ok := tm.fields[name]; ok {
		return true
	}
	_, ok := tm.GetFieldByColumn(name)
	return ok
}

// TableMetadataFromType gets table metadata from a reflect type
func TableMetadataFromType(t reflect.Type) *TableMetadata {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	tableMetadata := TableMetadata{
		modelType: t,
		fields:    map[string]FieldMetadata{},
	}
	children := []Child{}
	lookups := []Lookup{}
	foreignKeys := []ForeignKey{}

	metadataType := reflect.TypeOf(metadata.Metadata{})

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		kind := field.Type.Kind()

		tagsMap := GetStructTagsMap(field, TagKey)
		tableName, hasTableName := tagsMap["tablename"]
		_, isPrimaryKey := tagsMap["primary_key"]
		columnName, hasColumnName := tagsMap["column"]
		_, isLookup := tagsMap["lookup"]
		_, isChild := tagsMap["child"]
		_, isRequired := tagsMap["required"]
		_, isForeignKey := tagsMap["foreign_key"]
		auditType := tagsMap["audit"]

		if field.Type == metadataType && hasTableName {
			tableMetadata.tableName = tableName
		}

		if hasColumnName {
			tableMetadata.fields[field.Name] = FieldMetadata{
				name:         field.Name,
				index:        i,
				isPrimaryKey: isPrimaryKey,
				columnName:   columnName,
				audit:        auditType,
			}
			tableMetadata.fieldOrder = append(tableMetadata.fieldOrder, field.Name)

			if isPrimaryKey {
				tableMetadata.primaryKeyField = field.Name
			}
		}

		if isChild && kind == reflect.Slice {
			children = append(children, Child{
				FieldName:  field.Name,
				FieldType:  field.Type,
				ForeignKey: tagsMap["foreign_key"],
			})
		}

		if isLookup && hasColumnName {
			lookups = append(lookups, Lookup{
				MatchDBColumn:       columnName,
				MatchObjectProperty: field.Name,
			})
		}

		if isForeignKey && hasColumnName {
			foreignKey := ForeignKey{
				FieldName: field.Name,
				KeyColumn: columnName,
				Required:  isRequired,
			}
			if relatedField, ok := t.FieldByName(tagsMap["related"]); ok {
				foreignKey.RelatedFieldName = relatedField.Name
				foreignKey.RelatedType = relatedField.Type
			}
			foreignKeys = append(foreignKeys, foreignKey)
		}
	}

	tableMetadata.children = children
	tableMetadata.lookups = lookups
	tableMetadata.foreignKeys = foreignKeys

	return &tableMetadata
}

// GetStructTagsMap generates a map of struct tag to values
// Example
//
//	input: testKeyOne=test_value_one,testKeyTwo=test_value_two
//	output: map[string]string{"testKeyOne": "test_value_one", "testKeyTwo": "test_value_two"
func GetStructTagsMap(field reflect.StructField, tagType string) map[string]string {
	tagValue := field.Tag.Get(tagType)
	if tagValue == "" {
		return nil
	}

	tags := strings.Split(tagValue, ",")
	tagsMap := map[string]string{}

	for _, v := range tags {
		tagSplit := strings.SplitN(v, "=", 2)
		tagKey := tagSplit[0]
		tagValue := ""
		if len(tagSplit) == 2 {
			tagValue = tagSplit[1]
		}
		tagsMap[tagKey] = tagValue
	}

	return tagsMap
}
