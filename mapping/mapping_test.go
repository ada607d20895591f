package mapping_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/mapping"
	"github.com/samar-hassan/django-oscar-odin/oscarodintest"
	"github.com/samar-hassan/django-oscar-odin/testdata"
)

type bookRow struct {
	Code   string
	Title  string
	Tags   string
	Year   string
	hidden string
}

type bookResource struct {
	ISBN   string
	Title  string `validate:"required"`
	Tags   []string
	Year   int
	Format string
	hidden string
}

func TestApplyOne(t *testing.T) {
	m := mapping.New[bookRow, bookResource]().
		Define("Code", "ISBN").
		Define("Year", "Year").
		MapListField("Tags", func(src *bookRow) (interface{}, error) {
			if src.Tags == "" {
				return nil, nil
			}
			return strings.Split(src.Tags, "|"), nil
		}).
		AssignField("Format", func() interface{} { return "paperback" }).
		Func(func(src *bookRow, dst *bookResource) error {
			dst.Title = strings.ToUpper(dst.Title)
			return nil
		})

	resource, err := m.ApplyOne(&bookRow{Code: "A1", Title: "Dune", Tags: "sf|classic", Year: "1965", hidden: "x"})
	require.NoError(t, err)
	assert.Equal(t, &bookResource{
		ISBN:   "A1",
		Title:  "DUNE",
		Tags:   []string{"sf", "classic"},
		Year:   1965,
		Format: "paperback",
	}, resource)

	t.Run("should set empty lists", func(t *testing.T) {
		resource, err := m.ApplyOne(&bookRow{Title: "Emma", Year: "1815"})
		require.NoError(t, err)
		assert.NotNil(t, resource.Tags)
		assert.Empty(t, resource.Tags)
	})

	t.Run("should name the field that failed", func(t *testing.T) {
		_, err := m.ApplyOne(&bookRow{Title: "Emma", Year: "soon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mapping bookResource.Year")
	})

	t.Run("should reject nil sources", func(t *testing.T) {
		_, err := m.ApplyOne(nil)
		assert.EqualError(t, err, "cannot map a nil bookRow")
	})
}

func TestMappingOptions(t *testing.T) {
	t.Run("should not copy matching fields without auto mapping", func(t *testing.T) {
		m := mapping.New[bookRow, bookResource](mapping.WithoutAutoMap())
		resource, err := m.ApplyOne(&bookRow{Title: "Dune"})
		require.NoError(t, err)
		assert.Empty(t, resource.Title)
	})

	t.Run("should validate targets", func(t *testing.T) {
		m := mapping.New[bookRow, bookResource](mapping.WithValidation(), mapping.WithLogger(nil))
		_, err := m.ApplyOne(&bookRow{})
		assert.Error(t, err)
	})
}

func TestMappingDeclarationErrors(t *testing.T) {
	testCases := []struct {
		description string
		apply       func() error
		wantErr     string
	}{
		{
			"should reject unknown source fields",
			func() error {
				_, err := mapping.New[bookRow, bookResource]().Define("Author", "Title").ApplyOne(&bookRow{})
				return err
			},
			"bookRow has no field Author",
		},
		{
			"should reject unknown target fields",
			func() error {
				_, err := mapping.New[bookRow, bookResource]().AssignField("Author", func() interface{} { return "" }).Apply(nil)
				return err
			},
			"bookResource has no field Author",
		},
		{
			"should reject list rules on plain fields",
			func() error {
				_, err := mapping.New[bookRow, bookResource]().
					MapListField("Title", func(*bookRow) (interface{}, error) { return nil, nil }).
					ApplyOne(&bookRow{})
				return err
			},
			"bookResource.Title is not a list",
		},
		{
			"should reject non struct types",
			func() error {
				_, err := mapping.New[string, bookResource]().Apply(nil)
				return err
			},
			"Models must be structs",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.EqualError(t, tc.apply(), tc.wantErr)
		})
	}
}

func TestApply(t *testing.T) {
	m := mapping.New[bookRow, bookResource]().
		MapField("Year", func(src *bookRow) (interface{}, error) {
			if src.Year == "" {
				return nil, errors.New("year is missing")
			}
			return src.Year, nil
		})

	resources, err := m.Apply([]*bookRow{
		{Title: "Dune", Year: "1965"},
		{Title: "Emma"},
		{Title: "Ulysses", Year: "1922"},
		{Title: "Beloved"},
	})
	require.Error(t, err)
	assert.Len(t, resources, 2)
	assert.Equal(t, "Ulysses", resources[1].Title)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "record 1: mapping bookResource.Year: year is missing")
	assert.Contains(t, err.Error(), "record 3:")
}

type shelfSummary struct {
	Code string
	Name string
}

func TestMapQueryset(t *testing.T) {
	morm := &oscarodintest.MockORM{}
	require.NoError(t, morm.Store(
		&testdata.Shelf{Code: "fiction", Name: "Fiction"},
		&testdata.Shelf{Code: "poetry", Name: "Poetry"},
	))
	m := mapping.New[testdata.Shelf, shelfSummary]()

	summaries, err := mapping.MapQueryset(context.Background(), morm, m, oscarodin.FilterRequest{
		FilterModel: &testdata.Shelf{Code: "poetry"},
	})
	require.NoError(t, err)
	assert.Equal(t, []*shelfSummary{{Code: "poetry", Name: "Poetry"}}, summaries)

	all, err := mapping.MapQueryset(context.Background(), morm, m, oscarodin.FilterRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = mapping.MapQueryset(context.Background(), morm, m, oscarodin.FilterRequest{
		FilterModel: &testdata.Book{},
	})
	assert.EqualError(t, err, "mapping from Shelf cannot map rows of Book")
}
