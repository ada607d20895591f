package tags

import (
	"reflect"
	"testing"
	"time"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/stretchr/testify/assert"
)

type tagsTestClass struct {
	metadata.Metadata `oscar:"tablename=test_class"`

	ID   int64  `oscar:"primary_key,column=id"`
	Slug string `oscar:"lookup,column=slug"`
}

type tagsTestStruct struct {
	metadata.Metadata `oscar:"tablename=test_tablename"`

	TestPrimaryKeyField int64  `oscar:"primary_key,column=test_pk"`
	TestFieldOne        string `oscar:"column=test_column_one"`
	TestUntaggedField   string
	TestLookup          string           `oscar:"lookup,column=test_lookup"`
	TestClassID         *int64           `oscar:"foreign_key,required,related=TestClass,column=test_class_id"`
	TestClass           *tagsTestClass   `validate:"-"`
	TestChildren        []*tagsTestChild `oscar:"child,foreign_key=ParentID"`
	Created             time.Time        `oscar:"column=created,audit=created_at"`
}

type tagsTestChild struct {
	metadata.Metadata `oscar:"tablename=test_child"`

	ID       int64 `oscar:"primary_key,column=id"`
	ParentID int64 `oscar:"lookup,column=parent_id"`
}

func TestTableMetadataFromType(t *testing.T) {
	testCases := []struct {
		description       string
		giveType          reflect.Type
		wantTableMetadata *TableMetadata
	}{
		{
			"should populate with correct values",
			reflect.TypeOf(tagsTestStruct{}),
			&TableMetadata{
				modelType:       reflect.TypeOf(tagsTestStruct{}),
				tableName:       "test_tablename",
				primaryKeyField: "TestPrimaryKeyField",
				fields: map[string]FieldMetadata{
					"TestPrimaryKeyField": {
						name:         "TestPrimaryKeyField",
						index:        1,
						isPrimaryKey: true,
						columnName:   "test_pk",
					},
					"TestFieldOne": {
						name:       "TestFieldOne",
						index:      2,
						columnName: "test_column_one",
					},
					"TestLookup": {
						name:       "TestLookup",
						index:      4,
						columnName: "test_lookup",
					},
					"TestClassID": {
						name:       "TestClassID",
						index:      5,
						columnName: "test_class_id",
					},
					"Created": {
						name:       "Created",
						index:      8,
						columnName: "created",
						audit:      AuditCreatedAt,
					},
				},
				fieldOrder: []string{
					"TestPrimaryKeyField",
					"TestFieldOne",
					"TestLookup",
					"TestClassID",
					"Created",
				},
				lookups: []Lookup{
					{
						MatchDBColumn:       "test_lookup",
						MatchObjectProperty: "TestLookup",
					},
				},
				foreignKeys: []ForeignKey{
					{
						FieldName:        "TestClassID",
						KeyColumn:        "test_class_id",
						RelatedFieldName: "TestClass",
						RelatedType:      reflect.TypeOf(&tagsTestClass{}),
						Required:         true,
					},
				},
				children: []Child{
					{
						FieldName:  "TestChildren",
						FieldType:  reflect.TypeOf([]*tagsTestChild{}),
						ForeignKey: "ParentID",
					},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			tags := TableMetadataFromType(tc.giveType)
			assert.Equal(t, tc.wantTableMetadata, tags)
		})
	}
}

func TestTableMetadataColumnNames(t *testing.T) {
	tableMetadata := TableMetadataFromType(reflect.TypeOf(&tagsTestStruct{}))

	assert.Equal(t, []string{"test_pk", "test_column_one", "test_lookup", "test_class_id", "created"}, tableMetadata.GetColumnNames())
	assert.Equal(t, "test_pk", tableMetadata.GetPrimaryKeyColumnName())
	assert.Equal(t, "TestPrimaryKeyField", tableMetadata.GetPrimaryKeyFieldName())
	assert.True(t, tableMetadata.HasField("test_lookup"))
	assert.True(t, tableMetadata.HasField("TestLookup"))
	assert.False(t, tableMetadata.HasField("TestUntaggedField"))
	assert.NotNil(t, tableMetadata.GetChildField("TestChildren"))
	assert.NotNil(t, tableMetadata.GetForeignKeyFieldFromRelation("TestClass"))
}

func TestGetStructTagsMap(t *testing.T) {
	testCases := []struct {
		description string
		tag         string
		tagType     string
		wantMap     map[string]string
	}{
		{
			"should return tag as map",
			`testTag:"testKeyOne=test_value_one"`,
			"testTag",
			map[string]string{"testKeyOne": "test_value_one"},
		},
		{
			"should return multiple tags as map",
			`testTag:"testKeyOne=test_value_one,testKeyTwo=test_value_two"`,
			"testTag",
			map[string]string{"testKeyOne": "test_value_one", "testKeyTwo": "test_value_two"},
		},
		{
			"should return empty tags as keys in map with empty value",
			`testTag:"testKeyOne,testKeyTwo=test_value_two"`,
			"testTag",
			map[string]string{"testKeyOne": "", "testKeyTwo": "test_value_two"},
		},
		{
			"should return nil map for missing tag",
			`testTag:"testKeyOne=test_value_one"`,
			"missingTag",
			nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			field := reflect.StructField{
				Tag: reflect.StructTag(tc.tag),
			}
			resultMap := GetStructTagsMap(field, tc.tagType)
			assert.Equal(t, tc.wantMap, resultMap)
		})
	}
}
