package catalogue

import (
	"context"
	"sort"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/mapping"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/queryparts"
	"github.com/samar-hassan/django-oscar-odin/resources"
)

// productAssociations are loaded with every product read back as a resource
var productAssociations = []string{
	"ProductClass",
	"Parent",
	"Images",
	"StockRecords.Partner",
	"AttributeValues.Attribute",
}

// ProductsToResources loads the products selected by request with their
// product class, parent, images, stock records, categories and attribute
// values, and maps them to resources
func ProductsToResources(ctx context.Context, orm oscarodin.ORM, request oscarodin.FilterRequest) ([]*resources.Product, error) {
	request.Associations = append(append([]string{}, request.Associations...), productAssociations...)
	products, err := oscarodin.FilterModels[models.Product](ctx, orm, request)
	if err != nil {
		return nil, err
	}
	if err := loadCategories(ctx, orm, products); err != nil {
		return nil, err
	}
	return productToResource().Apply(products)
}

// loadCategories sets the categories of products from their links, joining
// each link to its category
func loadCategories(ctx context.Context, orm oscarodin.ORM, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}

	links, err := oscarodin.FilterModels[models.ProductCategory](ctx, orm, oscarodin.FilterRequest{
		FieldFilters: []queryparts.FieldFilter{
			{FieldName: "ProductID", FilterValue: ids},
		},
		OrderBy:      []queryparts.OrderByRequest{{Field: "ID"}},
		Associations: []string{"Category"},
	})
	if err != nil {
		return err
	}

	byProduct := map[int64][]*models.Category{}
	for _, link := range links {
		if link.Category != nil {
			byProduct[link.ProductID] = append(byProduct[link.ProductID], link.Category)
		}
	}
	for _, product := range products {
		product.Categories = byProduct[product.ID]
	}
	return nil
}

func productToResource() *mapping.Mapping[models.Product, resources.Product] {
	return mapping.New[models.Product, resources.Product]().
		MapField("DateCreated", func(src *models.Product) (interface{}, error) {
			if src.DateCreated.IsZero() {
				return nil, nil
			}
			return src.DateCreated, nil
		}).
		MapField("DateUpdated", func(src *models.Product) (interface{}, error) {
			if src.DateUpdated.IsZero() {
				return nil, nil
			}
			return src.DateUpdated, nil
		}).
		MapField("ProductClass", func(src *models.Product) (interface{}, error) {
			if src.ProductClass == nil {
				return nil, nil
			}
			return &resources.ProductClass{
				Name:             src.ProductClass.Name,
				Slug:             src.ProductClass.Slug,
				RequiresShipping: src.ProductClass.RequiresShipping,
				TrackStock:       src.ProductClass.TrackStock,
			}, nil
		}).
		MapField("Parent", func(src *models.Product) (interface{}, error) {
			if src.Parent == nil {
				return nil, nil
			}
			return &resources.Product{
				ID:        src.Parent.ID,
				UPC:       src.Parent.UPC,
				Structure: src.Parent.Structure,
				Title:     src.Parent.Title,
				Slug:      src.Parent.Slug,
				IsPublic:  src.Parent.IsPublic,
			}, nil
		}).
		MapListField("Images", func(src *models.Product) (interface{}, error) {
			sorted := append([]*models.ProductImage{}, src.Images...)
			sort.SliceStable(sorted, func(i, j int) bool {
				return sorted[i].DisplayOrder < sorted[j].DisplayOrder
			})
			images := make([]*resources.Image, 0, len(sorted))
			for _, image := range sorted {
				images = append(images, &resources.Image{
					Code:         image.Code,
					Original:     image.Original,
					Caption:      image.Caption,
					DisplayOrder: image.DisplayOrder,
				})
			}
			return images, nil
		}).
		MapListField("Categories", func(src *models.Product) (interface{}, error) {
			categories := make([]*resources.Category, 0, len(src.Categories))
			for _, category := range src.Categories {
				categories = append(categories, &resources.Category{
					Code:        category.Code,
					Name:        category.Name,
					Slug:        category.Slug,
					Description: category.Description,
					IsPublic:    category.IsPublic,
				})
			}
			return categories, nil
		}).
		Func(func(src *models.Product, dst *resources.Product) error {
			// the first stock record is the one a resource describes
			if len(src.StockRecords) > 0 {
				record := src.StockRecords[0]
				dst.Price = record.Price
				dst.Currency = record.PriceCurrency
				dst.Availability = record.NumInStock
				if record.Partner != nil {
					dst.Partner = &resources.Partner{Code: record.Partner.Code, Name: record.Partner.Name}
				}
			}

			for _, value := range src.AttributeValues {
				if value.Attribute == nil {
					continue
				}
				if dst.Attributes == nil {
					dst.Attributes = map[string]interface{}{}
				}
				dst.Attributes[value.Attribute.Code] = AttributeValue(value, value.Attribute.Type)
			}
			return nil
		})
}
