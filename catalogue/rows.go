package catalogue

import (
	"strconv"
	"strings"

	"github.com/samar-hassan/django-oscar-odin/mapping"
	"github.com/samar-hassan/django-oscar-odin/resources"
)

// RowMapping maps flat CSV rows to product resources
func RowMapping() *mapping.Mapping[resources.ProductRow, resources.Product] {
	return mapping.New[resources.ProductRow, resources.Product]().
		MapField("ProductClass", func(src *resources.ProductRow) (interface{}, error) {
			if src.ProductClass == "" {
				return nil, nil
			}
			return &resources.ProductClass{Slug: src.ProductClass}, nil
		}).
		MapListField("Categories", func(src *resources.ProductRow) (interface{}, error) {
			var categories []*resources.Category
			for _, code := range splitCell(src.Categories) {
				categories = append(categories, &resources.Category{Code: code})
			}
			return categories, nil
		}).
		MapListField("Images", func(src *resources.ProductRow) (interface{}, error) {
			var images []*resources.Image
			for i, original := range splitCell(src.Images) {
				images = append(images, &resources.Image{
					Code:         src.UPC + "-" + strconv.Itoa(i),
					Original:     original,
					DisplayOrder: i,
				})
			}
			return images, nil
		}).
		MapField("Price", func(src *resources.ProductRow) (interface{}, error) {
			if src.Price == "" {
				return nil, nil
			}
			return strconv.ParseFloat(src.Price, 64)
		}).
		MapField("Availability", func(src *resources.ProductRow) (interface{}, error) {
			if src.Availability == "" {
				return nil, nil
			}
			return strconv.Atoi(src.Availability)
		}).
		MapField("Partner", func(src *resources.ProductRow) (interface{}, error) {
			if src.Partner == "" {
				return nil, nil
			}
			return &resources.Partner{Code: src.Partner}, nil
		})
}

// ResourceRowMapping maps product resources to flat CSV rows
func ResourceRowMapping() *mapping.Mapping[resources.Product, resources.ProductRow] {
	return mapping.New[resources.Product, resources.ProductRow]().
		MapField("ProductClass", func(src *resources.Product) (interface{}, error) {
			if src.ProductClass == nil {
				return "", nil
			}
			return src.ProductClass.Slug, nil
		}).
		MapField("Categories", func(src *resources.Product) (interface{}, error) {
			codes := make([]string, 0, len(src.Categories))
			for _, category := range src.Categories {
				codes = append(codes, category.Code)
			}
			return strings.Join(codes, resources.Separator), nil
		}).
		MapField("Images", func(src *resources.Product) (interface{}, error) {
			originals := make([]string, 0, len(src.Images))
			for _, image := range src.Images {
				originals = append(originals, image.Original)
			}
			return strings.Join(originals, resources.Separator), nil
		}).
		MapField("Price", func(src *resources.Product) (interface{}, error) {
			if src.Price == nil {
				return "", nil
			}
			return strconv.FormatFloat(*src.Price, 'f', -1, 64), nil
		}).
		MapField("Availability", func(src *resources.Product) (interface{}, error) {
			if src.Availability == nil {
				return "", nil
			}
			return strconv.Itoa(*src.Availability), nil
		}).
		MapField("Partner", func(src *resources.Product) (interface{}, error) {
			if src.Partner == nil {
				return "", nil
			}
			return src.Partner.Code, nil
		})
}

func splitCell(cell string) []string {
	var values []string
	for _, value := range strings.Split(cell, resources.Separator) {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}
