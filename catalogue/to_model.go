package catalogue

import (
	"fmt"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/mapping"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/resources"
	"github.com/samar-hassan/django-oscar-odin/stringutil"
)

// productFields maps resource fields to the model fields they write, for
// partial updates of decoded resources
var productFields = map[string][]string{
	"UPC":            {"UPC"},
	"Structure":      {"Structure"},
	"Title":          {"Title"},
	"Slug":           {"Slug"},
	"Description":    {"Description"},
	"IsPublic":       {"IsPublic"},
	"IsDiscountable": {"IsDiscountable"},
	"Rating":         {"Rating"},
	"ProductClass":   {"ProductClassID"},
	"Parent":         {"ParentID"},
}

// productToModel maps product resources to models, buffering every related
// record in mc
func productToModel(mc *oscarodin.MapperContext) *mapping.Mapping[resources.Product, models.Product] {
	return mapping.New[resources.Product, models.Product]().
		MapField("Structure", func(src *resources.Product) (interface{}, error) {
			if src.Structure == "" {
				return models.StructureStandalone, nil
			}
			return src.Structure, nil
		}).
		MapField("Slug", func(src *resources.Product) (interface{}, error) {
			return productSlug(src), nil
		}).
		MapListField("Images", func(src *resources.Product) (interface{}, error) {
			images := make([]*models.ProductImage, 0, len(src.Images))
			for _, image := range src.Images {
				images = append(images, imageToModel(image))
			}
			return images, nil
		}).
		MapListField("Categories", func(src *resources.Product) (interface{}, error) {
			categories := make([]*models.Category, 0, len(src.Categories))
			for _, category := range src.Categories {
				categories = append(categories, categoryToModel(category))
			}
			return categories, nil
		}).
		MapListField("StockRecords", func(src *resources.Product) (interface{}, error) {
			record, err := stockRecordToModel(src)
			if err != nil || record == nil {
				return nil, err
			}
			return []*models.StockRecord{record}, nil
		}).
		Func(func(src *resources.Product, dst *models.Product) error {
			if src.ProductClass != nil {
				dst.ProductClass = productClassToModel(src.ProductClass)
				mc.AddForeignKey(ProductClassRelation, dst.ProductClass)
			}
			if src.Parent != nil {
				dst.Parent = &models.Product{
					UPC:       src.Parent.UPC,
					Title:     src.Parent.Title,
					Slug:      productSlug(src.Parent),
					Structure: models.StructureParent,
					IsPublic:  src.Parent.IsPublic,
				}
				mc.AddForeignKey(ParentRelation, dst.Parent)
			}

			for _, record := range dst.StockRecords {
				mc.AddForeignKey(PartnerRelation, record.Partner)
			}
			mc.AddOneToMany(ImagesRelation, dst, toInterfaces(dst.Images))
			mc.AddOneToMany(StockRecordsRelation, dst, toInterfaces(dst.StockRecords))
			mc.AddManyToMany(CategoriesRelation, dst, toInterfaces(dst.Categories))
			if len(src.Attributes) > 0 {
				mc.AddAttributeData(dst, src.Attributes)
			}

			if src.Metadata.DefinedFields != nil {
				dst.Metadata.DefinedFields = modelFields(src.Metadata.DefinedFields)
			}
			return nil
		})
}

func productSlug(src *resources.Product) string {
	switch {
	case src.Slug != "":
		return src.Slug
	case src.Title != "":
		return stringutil.Slugify(src.Title)
	}
	return stringutil.Slugify(src.UPC)
}

func modelFields(resourceFields []string) []string {
	fields := []string{}
	for _, field := range resourceFields {
		fields = append(fields, productFields[field]...)
	}
	return fields
}

func productClassToModel(src *resources.ProductClass) *models.ProductClass {
	name := src.Name
	if name == "" {
		name = src.Slug
	}
	return &models.ProductClass{
		Name:             name,
		Slug:             src.Slug,
		RequiresShipping: src.RequiresShipping,
		TrackStock:       src.TrackStock,
	}
}

func categoryToModel(src *resources.Category) *models.Category {
	name := src.Name
	if name == "" {
		name = src.Code
	}
	slug := src.Slug
	if slug == "" {
		slug = stringutil.Slugify(name)
	}
	return &models.Category{
		Code:        src.Code,
		Name:        name,
		Slug:        slug,
		Description: src.Description,
		IsPublic:    src.IsPublic,
		Depth:       1,
	}
}

func imageToModel(src *resources.Image) *models.ProductImage {
	return &models.ProductImage{
		Code:         src.Code,
		Original:     src.Original,
		Caption:      src.Caption,
		DisplayOrder: src.DisplayOrder,
	}
}

// stockRecordToModel returns nil when the resource carries no stock data
func stockRecordToModel(src *resources.Product) (*models.StockRecord, error) {
	if src.Partner == nil {
		if src.Price != nil || src.Availability != nil {
			return nil, fmt.Errorf("stock record of product %s has no partner", src.UPC)
		}
		return nil, nil
	}
	name := src.Partner.Name
	if name == "" {
		name = src.Partner.Code
	}
	return &models.StockRecord{
		PartnerSKU:    src.UPC,
		PriceCurrency: src.Currency,
		Price:         src.Price,
		NumInStock:    src.Availability,
		Partner: &models.Partner{
			Code: src.Partner.Code,
			Name: name,
		},
	}, nil
}

func toInterfaces[T any](records []*T) []interface{} {
	erased := make([]interface{}, 0, len(records))
	for _, record := range records {
		erased = append(erased, record)
	}
	return erased
}
