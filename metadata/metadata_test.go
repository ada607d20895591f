package metadata

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type metadataTestModel struct {
	Metadata Metadata `oscar:"tablename=test_table"`
	Name     string
}

func TestDefinedFields(t *testing.T) {
	model := &metadataTestModel{}
	value := GetMetadataValue(reflect.ValueOf(model))

	assert.True(t, value.IsValid())
	assert.False(t, HasDefinedFields(value))

	InitializeDefinedFields(value)
	assert.True(t, HasDefinedFields(value))
	assert.Equal(t, []string{}, model.Metadata.DefinedFields)

	AddDefinedField(value, "Name")
	assert.Equal(t, []string{"Name"}, model.Metadata.DefinedFields)
}

func TestMarkPersisted(t *testing.T) {
	testCases := []struct {
		description string
		give        interface{}
		wantValid   bool
	}{
		{
			"should flag a pointer to a model",
			&metadataTestModel{},
			true,
		},
		{
			"should ignore structs without metadata",
			&struct{ Name string }{},
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			value := reflect.ValueOf(tc.give)
			assert.False(t, IsPersisted(value))
			MarkPersisted(value, true)
			assert.Equal(t, tc.wantValid, IsPersisted(value))
		})
	}
}

func TestGetMetadataValueNonStruct(t *testing.T) {
	assert.False(t, GetMetadataValue(reflect.ValueOf("not a struct")).IsValid())
}
