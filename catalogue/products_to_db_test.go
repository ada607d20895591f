package catalogue

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/samar-hassan/django-oscar-odin/dbchange"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/oscarodintest"
	"github.com/samar-hassan/django-oscar-odin/resources"
)

func float64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int             { return &i }

// seedCatalogue stores a product class with two attributes and one category
func seedCatalogue(t *testing.T) (*oscarodintest.MockORM, *models.ProductClass) {
	orm := &oscarodintest.MockORM{}
	class := &models.ProductClass{Name: "Default", Slug: "default", TrackStock: true}
	require.NoError(t, orm.Store(class))
	require.NoError(t, orm.Store(
		&models.ProductAttribute{ProductClassID: &class.ID, Code: "weight", Name: "Weight", Type: models.AttributeInteger},
		&models.ProductAttribute{ProductClassID: &class.ID, Code: "brand", Name: "Brand", Type: models.AttributeText},
		&models.Category{Code: "101", Name: "Fruit", Depth: 1},
	))
	return orm, class
}

func sampleProducts() []*resources.Product {
	return []*resources.Product{
		{
			UPC:          "A1",
			Title:        "Apple Juice",
			IsPublic:     true,
			ProductClass: &resources.ProductClass{Slug: "default"},
			Categories:   []*resources.Category{{Code: "101"}, {Code: "213"}},
			Images:       []*resources.Image{{Code: "A1-0", Original: "https://example.com/a1.jpg"}},
			Price:        float64Ptr(2.5),
			Currency:     "EUR",
			Availability: intPtr(12),
			Partner:      &resources.Partner{Code: "1049"},
			Attributes: map[string]interface{}{
				"weight": 10,
				"brand":  "Acme",
				"unused": nil,
			},
		},
		{
			UPC:          "B2",
			Title:        "Bread",
			ProductClass: &resources.ProductClass{Slug: "default"},
			Categories:   []*resources.Category{{Code: "213"}},
		},
	}
}

func TestProductsToDB(t *testing.T) {
	orm, class := seedCatalogue(t)

	products, changes, err := ProductsToDB(context.Background(), orm, sampleProducts())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 1, orm.Committed)
	assert.False(t, orm.InTransaction())

	apple, bread := products[0], products[1]
	assert.NotZero(t, apple.ID)
	assert.NotZero(t, bread.ID)
	assert.Equal(t, "apple-juice", apple.Slug)
	assert.Equal(t, models.StructureStandalone, apple.Structure)
	require.NotNil(t, apple.ProductClassID)
	assert.Equal(t, class.ID, *apple.ProductClassID)
	assert.Equal(t, class.ID, *bread.ProductClassID)

	t.Run("saves one to many children against their product", func(t *testing.T) {
		images := orm.Rows("catalogue_productimage")
		require.Len(t, images, 1)
		assert.Equal(t, apple.ID, images[0].(*models.ProductImage).ProductID)

		partners := orm.Rows("partner_partner")
		require.Len(t, partners, 1)
		partner := partners[0].(*models.Partner)
		assert.Equal(t, "1049", partner.Code)

		records := orm.Rows("partner_stockrecord")
		require.Len(t, records, 1)
		record := records[0].(*models.StockRecord)
		assert.Equal(t, apple.ID, record.ProductID)
		assert.Equal(t, partner.ID, record.PartnerID)
		assert.Equal(t, 2.5, *record.Price)
		assert.Equal(t, 12, *record.NumInStock)
	})

	t.Run("creates missing categories and links", func(t *testing.T) {
		categories := orm.Rows("catalogue_category")
		require.Len(t, categories, 2)
		assert.Equal(t, "213", categories[1].(*models.Category).Code)

		links := orm.Rows("catalogue_productcategory")
		require.Len(t, links, 3)
		assert.Equal(t, apple.ID, links[0].(*models.ProductCategory).ProductID)
		assert.Equal(t, categories[0].(*models.Category).ID, links[0].(*models.ProductCategory).CategoryID)
		assert.Equal(t, bread.ID, links[2].(*models.ProductCategory).ProductID)
		assert.Equal(t, categories[1].(*models.Category).ID, links[2].(*models.ProductCategory).CategoryID)
	})

	t.Run("resolves attribute values against the product class", func(t *testing.T) {
		values := orm.Rows("catalogue_productattributevalue")
		require.Len(t, values, 2)
		brand := values[0].(*models.ProductAttributeValue)
		weight := values[1].(*models.ProductAttributeValue)
		assert.Equal(t, apple.ID, brand.ProductID)
		assert.Equal(t, "Acme", *brand.ValueText)
		assert.Equal(t, int64(10), *weight.ValueInteger)
		assert.Nil(t, weight.ValueText)
	})

	t.Run("existing product class is not rewritten", func(t *testing.T) {
		for _, call := range orm.UpdateCalledWith {
			for _, record := range call {
				_, isClass := record.(*models.ProductClass)
				assert.False(t, isClass)
			}
		}
	})

	assert.Equal(t, []dbchange.TableSummary{
		{Table: "partner_partner", Inserted: 1},
		{Table: "catalogue_product", Inserted: 2},
		{Table: "catalogue_productimage", Inserted: 1},
		{Table: "partner_stockrecord", Inserted: 1},
		{Table: "catalogue_productattributevalue", Inserted: 2},
		{Table: "catalogue_category", Inserted: 1},
		{Table: "catalogue_productcategory", Inserted: 3},
	}, changes.Summary())
}

func TestProductsToDBIsIdempotent(t *testing.T) {
	orm, _ := seedCatalogue(t)

	first, _, err := ProductsToDB(context.Background(), orm, sampleProducts())
	require.NoError(t, err)

	second, changes, err := ProductsToDB(context.Background(), orm, sampleProducts())
	require.NoError(t, err)

	assert.Empty(t, changes.Inserts)
	assert.Len(t, orm.Rows("catalogue_product"), 2)
	assert.Len(t, orm.Rows("catalogue_productcategory"), 3)
	assert.Len(t, orm.Rows("catalogue_productattributevalue"), 2)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestProductsToDBDuplicateUPC(t *testing.T) {
	orm, _ := seedCatalogue(t)
	products := []*resources.Product{
		{
			UPC:          "A1",
			Title:        "First",
			ProductClass: &resources.ProductClass{Slug: "default"},
			Price:        float64Ptr(1),
			Partner:      &resources.Partner{Code: "1049"},
			Attributes:   map[string]interface{}{"weight": 1},
		},
		{
			UPC:          "A1",
			Title:        "Second",
			ProductClass: &resources.ProductClass{Slug: "default"},
			Price:        float64Ptr(2),
			Partner:      &resources.Partner{Code: "1049"},
			Attributes:   map[string]interface{}{"weight": 2},
		},
	}

	saved, _, err := ProductsToDB(context.Background(), orm, products)
	require.NoError(t, err)
	assert.Equal(t, saved[0].ID, saved[1].ID)

	rows := orm.Rows("catalogue_product")
	require.Len(t, rows, 1)
	assert.Equal(t, "Second", rows[0].(*models.Product).Title)

	records := orm.Rows("partner_stockrecord")
	require.Len(t, records, 1)
	assert.Equal(t, 2.0, *records[0].(*models.StockRecord).Price)
	assert.Len(t, orm.Rows("partner_partner"), 1)

	values := orm.Rows("catalogue_productattributevalue")
	require.Len(t, values, 1)
	assert.Equal(t, int64(2), *values[0].(*models.ProductAttributeValue).ValueInteger)
}

func TestProductsToDBRunID(t *testing.T) {
	t.Run("tags the logger with a new run id", func(t *testing.T) {
		orm, _ := seedCatalogue(t)
		core, logs := observer.New(zap.InfoLevel)

		_, changes, err := ProductsToDB(context.Background(), orm, sampleProducts(), WithLogger(zap.New(core)))
		require.NoError(t, err)

		entries := logs.FilterMessage("saved table").All()
		require.NotEmpty(t, entries)
		assert.Equal(t, changes.RunID.String(), entries[0].ContextMap()["run_id"])
	})

	t.Run("uses the given run id", func(t *testing.T) {
		orm, _ := seedCatalogue(t)
		core, logs := observer.New(zap.InfoLevel)
		runID := uuid.NewV4()

		_, changes, err := ProductsToDB(context.Background(), orm, sampleProducts(),
			WithLogger(zap.New(core).With(zap.String("run_id", runID.String()))),
			WithRunID(runID),
		)
		require.NoError(t, err)
		assert.Equal(t, runID, changes.RunID)

		entries := logs.FilterMessage("saved table").All()
		require.NotEmpty(t, entries)
		assert.Len(t, entries[0].Context, 4)
		assert.Equal(t, runID.String(), entries[0].ContextMap()["run_id"])
	})
}

func TestProductsToDBFieldsToUpdate(t *testing.T) {
	orm, _ := seedCatalogue(t)
	existing := &models.Product{UPC: "B2", Title: "Old bread", Structure: models.StructureStandalone}
	require.NoError(t, orm.Store(existing))

	_, changes, err := ProductsToDB(context.Background(), orm, sampleProducts()[1:], WithFieldsToUpdate("Title"))
	require.NoError(t, err)

	require.Len(t, orm.UpdateCalledWith, 1)
	assert.Equal(t, existing.ID, orm.UpdateCalledWith[0][0].(*models.Product).ID)
	assert.Equal(t, []string{"Title"}, orm.UpdateFieldsCalledWith[0])
	assert.Len(t, changes.Updates, 1)
}

func TestProductsToDBErrors(t *testing.T) {
	t.Run("invalid resources are rejected before saving", func(t *testing.T) {
		orm := &oscarodintest.MockORM{}
		_, _, err := ProductsToDB(context.Background(), orm, []*resources.Product{{Title: "No UPC"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UPC")
		assert.Empty(t, orm.InsertCalledWith)
		assert.Zero(t, orm.RolledBack)
	})

	t.Run("unknown attributes roll back", func(t *testing.T) {
		orm, _ := seedCatalogue(t)
		products := []*resources.Product{{
			UPC:          "A1",
			ProductClass: &resources.ProductClass{Slug: "default"},
			Attributes:   map[string]interface{}{"colour": "red"},
		}}
		_, _, err := ProductsToDB(context.Background(), orm, products)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownAttribute))
		assert.Equal(t, 1, orm.RolledBack)
		assert.Zero(t, orm.Committed)
	})

	t.Run("lookup errors are returned", func(t *testing.T) {
		lookupErr := errors.New("connection reset")
		orm := &oscarodintest.MockORM{LookupError: lookupErr}
		_, _, err := ProductsToDB(context.Background(), orm, []*resources.Product{{UPC: "A1"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, lookupErr))
		assert.Equal(t, 1, orm.RolledBack)
	})

	t.Run("price without partner", func(t *testing.T) {
		orm := &oscarodintest.MockORM{}
		_, _, err := ProductsToDB(context.Background(), orm, []*resources.Product{{UPC: "A1", Price: float64Ptr(1)}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no partner")
	})
}

func TestProductsToDBOpenTransaction(t *testing.T) {
	orm := &oscarodintest.MockORM{}
	require.NoError(t, orm.Begin(context.Background()))

	_, _, err := ProductsToDB(context.Background(), orm, []*resources.Product{{UPC: "A1"}})
	require.NoError(t, err)
	assert.True(t, orm.InTransaction())
	assert.Zero(t, orm.Committed)
}

func TestProductsToDBParent(t *testing.T) {
	orm := &oscarodintest.MockORM{}
	products := []*resources.Product{
		{UPC: "C1", Structure: models.StructureChild, Parent: &resources.Product{UPC: "P1", Title: "Shirt"}},
		{UPC: "C2", Structure: models.StructureChild, Parent: &resources.Product{UPC: "P1", Title: "Shirt"}},
	}

	saved, _, err := ProductsToDB(context.Background(), orm, products)
	require.NoError(t, err)

	rows := orm.Rows("catalogue_product")
	require.Len(t, rows, 3)
	parent := rows[0].(*models.Product)
	assert.Equal(t, "P1", parent.UPC)
	assert.Equal(t, models.StructureParent, parent.Structure)
	for _, child := range saved {
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	}
}
