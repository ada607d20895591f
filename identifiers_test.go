package oscarodin

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samar-hassan/django-oscar-odin/testdata"
)

func TestNewKey(t *testing.T) {
	var nilID *int64
	id := int64(7)
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	testCases := []struct {
		description string
		a           []interface{}
		b           []interface{}
		equal       bool
	}{
		{"should match integer widths", []interface{}{7}, []interface{}{int64(7)}, true},
		{"should match bytes and strings", []interface{}{[]byte("A1")}, []interface{}{"A1"}, true},
		{"should dereference pointers", []interface{}{&id}, []interface{}{int64(7)}, true},
		{"should treat nil pointers as null", []interface{}{nilID}, []interface{}{nil}, true},
		{"should compare times in UTC", []interface{}{when}, []interface{}{when.UTC()}, true},
		{"should keep composite values apart", []interface{}{"a|b"}, []interface{}{"a", "b"}, false},
		{"should not match null and empty", []interface{}{nil}, []interface{}{""}, false},
		{"should match composite keys in order", []interface{}{1, "x"}, []interface{}{int64(1), []byte("x")}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.equal, NewKey(tc.a...) == NewKey(tc.b...))
		})
	}
}

func TestRegister(t *testing.T) {
	ids := NewIdentifiers()
	Register(ids,
		Column("book_id", func(e *testdata.Edition) interface{} { return e.BookID }),
		Column("number", func(e *testdata.Edition) interface{} { return e.Number }),
	)

	editionType := reflect.TypeOf(testdata.Edition{})
	assert.True(t, ids.Has(editionType))
	assert.True(t, ids.Has(reflect.TypeOf(&testdata.Edition{})))
	assert.False(t, ids.Has(reflect.TypeOf(testdata.Sticker{})))
	assert.Equal(t, []string{"book_id", "number"}, ids.Columns(editionType))

	values, ok, err := ids.Values(&testdata.Edition{BookID: 3, Number: 2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []interface{}{int64(3), 2}, values)

	key, ok, err := ids.KeyOf(&testdata.Edition{BookID: 3, Number: 2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, NewKey(3, 2), key)

	t.Run("should report unregistered models", func(t *testing.T) {
		values, ok, err := ids.Values(&testdata.Sticker{Label: "x"})
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, values)
	})

	t.Run("should replace and remove keys", func(t *testing.T) {
		Register(ids, Column("number", func(e *testdata.Edition) interface{} { return e.Number }))
		assert.Equal(t, []string{"number"}, ids.Columns(editionType))

		Register[testdata.Edition](ids)
		assert.False(t, ids.Has(editionType))
	})

	t.Run("should reject records of the wrong type", func(t *testing.T) {
		Register(ids, Column("number", func(e *testdata.Edition) interface{} { return e.Number }))
		_, _, err := ids.Values(testdata.Edition{Number: 1})
		assert.Error(t, err)
	})
}

func TestIdentifiersValuesDereference(t *testing.T) {
	ids := NewIdentifiers()
	Register(ids, Column("shelf_id", func(b *testdata.Book) interface{} { return b.ShelfID }))

	values, _, err := ids.Values(&testdata.Book{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil}, values)

	shelfID := int64(4)
	values, _, err = ids.Values(&testdata.Book{ShelfID: &shelfID})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(4)}, values)
}

func TestIdentifiersFromTags(t *testing.T) {
	ids := IdentifiersFromTags(testdata.Book{}, &testdata.Edition{}, testdata.Sticker{}, "not a model")

	assert.Equal(t, []string{"isbn"}, ids.Columns(reflect.TypeOf(testdata.Book{})))
	assert.Equal(t, []string{"book_id", "number"}, ids.Columns(reflect.TypeOf(testdata.Edition{})))
	assert.False(t, ids.Has(reflect.TypeOf(testdata.Sticker{})))

	key, ok, err := ids.KeyOf(&testdata.Book{ISBN: "978"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, NewKey("978"), key)
}

func TestNilIdentifiers(t *testing.T) {
	var ids *Identifiers
	assert.False(t, ids.Has(reflect.TypeOf(testdata.Book{})))
	assert.Empty(t, ids.Columns(reflect.TypeOf(testdata.Book{})))
	_, ok, err := ids.Values(&testdata.Book{})
	assert.False(t, ok)
	assert.NoError(t, err)
}
