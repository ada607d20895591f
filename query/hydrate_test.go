package query

import (
	"reflect"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

type hydrateTestModel struct {
	Metadata    metadata.Metadata `oscar:"tablename=catalogue_product"`
	ID          int64             `oscar:"primary_key,column=id"`
	UPC         string            `oscar:"lookup,column=upc"`
	ParentID    *int64            `oscar:"column=parent_id"`
	IsPublic    bool              `oscar:"column=is_public"`
	DateCreated time.Time         `oscar:"column=date_created"`
}

func TestHydrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tbl := New("catalogue_product")
	tbl.AddColumns([]string{"id", "upc", "parent_id", "is_public", "date_created"})

	mock.ExpectQuery(`^SELECT t0\.id AS "t0\.id"`).
		WillReturnRows(
			sqlmock.NewRows([]string{"t0.id", "t0.upc", "t0.parent_id", "t0.is_public", "t0.date_created"}).
				AddRow(int64(7), "A1", nil, true, created).
				AddRow([]byte("8"), []byte("B2"), []byte("7"), []byte("0"), []byte("2024-03-01 10:00:00")),
		)

	sql, args, err := tbl.ToSQL(Postgres)
	require.NoError(t, err)
	rows, err := db.Query(sql, args...)
	require.NoError(t, err)

	scanned, err := Scan(rows)
	require.NoError(t, err)
	require.Len(t, scanned, 2)

	models, err := Hydrate(reflect.TypeOf(hydrateTestModel{}), "t0", tbl.FieldAliases(), scanned)
	require.NoError(t, err)

	parentID := int64(7)
	assert.Equal(t, []interface{}{
		&hydrateTestModel{
			ID:          7,
			UPC:         "A1",
			IsPublic:    true,
			DateCreated: created,
		},
		&hydrateTestModel{
			ID:          8,
			UPC:         "B2",
			ParentID:    &parentID,
			IsPublic:    false,
			DateCreated: created,
		},
	}, models)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHydrateModelError(t *testing.T) {
	meta := tags.TableMetadataFromType(reflect.TypeOf(hydrateTestModel{}))
	_, err := HydrateModel(reflect.TypeOf(hydrateTestModel{}), meta, map[string]interface{}{
		"id": "seven",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "hydrating hydrateTestModel.ID")
}
