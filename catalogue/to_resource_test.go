package catalogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/oscarodintest"
	"github.com/samar-hassan/django-oscar-odin/queryparts"
)

func TestProductsToResources(t *testing.T) {
	orm, _ := seedCatalogue(t)
	_, _, err := ProductsToDB(context.Background(), orm, sampleProducts())
	require.NoError(t, err)

	products, err := ProductsToResources(context.Background(), orm, oscarodin.FilterRequest{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	apple := products[0]
	assert.Equal(t, "A1", apple.UPC)
	assert.Equal(t, "Apple Juice", apple.Title)
	assert.Equal(t, "apple-juice", apple.Slug)
	require.NotNil(t, apple.ProductClass)
	assert.Equal(t, "default", apple.ProductClass.Slug)

	require.Len(t, apple.Categories, 2)
	assert.Equal(t, "101", apple.Categories[0].Code)
	assert.Equal(t, "Fruit", apple.Categories[0].Name)
	assert.Equal(t, "213", apple.Categories[1].Code)

	require.Len(t, apple.Images, 1)
	assert.Equal(t, "https://example.com/a1.jpg", apple.Images[0].Original)

	require.NotNil(t, apple.Price)
	assert.Equal(t, 2.5, *apple.Price)
	assert.Equal(t, "EUR", apple.Currency)
	assert.Equal(t, 12, *apple.Availability)
	require.NotNil(t, apple.Partner)
	assert.Equal(t, "1049", apple.Partner.Code)

	assert.Equal(t, map[string]interface{}{
		"brand":  "Acme",
		"weight": int64(10),
	}, apple.Attributes)

	bread := products[1]
	assert.Nil(t, bread.Price)
	assert.Nil(t, bread.Partner)
	assert.Empty(t, bread.Images)
	assert.Nil(t, bread.Attributes)
	assert.Nil(t, bread.DateCreated)
}

func TestProductsToResourcesFiltered(t *testing.T) {
	orm, _ := seedCatalogue(t)
	_, _, err := ProductsToDB(context.Background(), orm, sampleProducts())
	require.NoError(t, err)

	products, err := ProductsToResources(context.Background(), orm, oscarodin.FilterRequest{
		FieldFilters: []queryparts.FieldFilter{{FieldName: "UPC", FilterValue: "B2"}},
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "B2", products[0].UPC)
	require.Len(t, products[0].Categories, 1)
	assert.Equal(t, "213", products[0].Categories[0].Code)
}

func TestProductsToResourcesError(t *testing.T) {
	filterErr := errors.New("boom")
	orm := &oscarodintest.MockORM{FilterModelError: filterErr}

	_, err := ProductsToResources(context.Background(), orm, oscarodin.FilterRequest{})
	assert.True(t, errors.Is(err, filterErr))
}

func TestProductsToResourcesParent(t *testing.T) {
	orm := &oscarodintest.MockORM{}
	parent := &models.Product{UPC: "P1", Title: "Shirt", Structure: models.StructureParent}
	require.NoError(t, orm.Store(parent))
	require.NoError(t, orm.Store(&models.Product{UPC: "C1", Structure: models.StructureChild, ParentID: &parent.ID}))

	products, err := ProductsToResources(context.Background(), orm, oscarodin.FilterRequest{
		FilterModel: &models.Product{Structure: models.StructureChild},
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Parent)
	assert.Equal(t, "P1", products[0].Parent.UPC)
}

func TestProductsToResourcesAssociations(t *testing.T) {
	orm, _ := seedCatalogue(t)
	saved, _, err := ProductsToDB(context.Background(), orm, sampleProducts())
	require.NoError(t, err)
	orm.FilterModelCalledWith = nil

	_, err = ProductsToResources(context.Background(), orm, oscarodin.FilterRequest{
		Associations: []string{"Images"},
	})
	require.NoError(t, err)

	require.Len(t, orm.FilterModelCalledWith, 2)
	assert.Equal(t, []string{
		"Images",
		"ProductClass",
		"Parent",
		"Images",
		"StockRecords.Partner",
		"AttributeValues.Attribute",
	}, orm.FilterModelCalledWith[0].Associations)

	links := orm.FilterModelCalledWith[1]
	assert.IsType(t, &models.ProductCategory{}, links.FilterModel)
	assert.Equal(t, []string{"Category"}, links.Associations)
	assert.Equal(t, []queryparts.FieldFilter{{FieldName: "ProductID", FilterValue: []int64{saved[0].ID, saved[1].ID}}}, links.FieldFilters)
}
