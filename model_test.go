package oscarodin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samar-hassan/django-oscar-odin/testdata"
)

func TestPrimaryKey(t *testing.T) {
	assert.Nil(t, PrimaryKey(&testdata.Book{}))
	assert.Equal(t, int64(4), PrimaryKey(&testdata.Book{ID: 4}))
	assert.Equal(t, int64(4), PrimaryKey(testdata.Book{ID: 4}))
	assert.Nil(t, PrimaryKey(&testdata.Keyless{Name: "x"}))
	assert.Nil(t, PrimaryKey("not a model"))
	assert.Nil(t, PrimaryKey((*testdata.Book)(nil)))
}

func TestSetPrimaryKey(t *testing.T) {
	t.Run("should convert and mark persisted", func(t *testing.T) {
		book := &testdata.Book{}
		require.NoError(t, SetPrimaryKey(book, []byte("12")))
		assert.Equal(t, int64(12), book.ID)
		assert.True(t, IsPersisted(book))
	})

	t.Run("should fail without a primary key", func(t *testing.T) {
		assert.Equal(t, ErrNoPrimaryKey, SetPrimaryKey(&testdata.Keyless{}, 1))
	})

	t.Run("should fail on values it cannot assign", func(t *testing.T) {
		assert.Error(t, SetPrimaryKey(&testdata.Book{}, []byte("twelve")))
	})
}

func TestModelType(t *testing.T) {
	shared, err := modelType([]interface{}{&testdata.Book{}, testdata.Book{}})
	require.NoError(t, err)
	assert.Equal(t, "Book", shared.Name())

	_, err = modelType([]interface{}{&testdata.Book{}, &testdata.Shelf{}})
	assert.Equal(t, ErrMixedModels, err)
}
