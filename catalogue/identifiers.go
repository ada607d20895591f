/*
Package catalogue saves product resources to the catalogue tables and reads
them back.

	products, changes, err := catalogue.ProductsToDB(ctx, orm, resources,
		catalogue.WithFieldsToUpdate("Title", "IsPublic"),
		catalogue.WithLogger(logger),
	)

Related records are matched to existing rows by natural key, see
DefaultIdentifiers.
*/
package catalogue

import (
	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/models"
)

// Relations of the catalogue models buffered while mapping products
var (
	ProductClassRelation    = oscarodin.NewRelation(oscarodin.ForeignKey, models.Product{}, "ProductClass", models.ProductClass{})
	ParentRelation          = oscarodin.NewRelation(oscarodin.ForeignKey, models.Product{}, "Parent", models.Product{})
	PartnerRelation         = oscarodin.NewRelation(oscarodin.ForeignKey, models.StockRecord{}, "Partner", models.Partner{})
	CategoriesRelation      = oscarodin.NewRelation(oscarodin.ManyToMany, models.Product{}, "Categories", models.Category{})
	ImagesRelation          = oscarodin.NewRelation(oscarodin.OneToMany, models.Product{}, "Images", models.ProductImage{})
	StockRecordsRelation    = oscarodin.NewRelation(oscarodin.OneToMany, models.Product{}, "StockRecords", models.StockRecord{})
	AttributeValuesRelation = oscarodin.NewRelation(oscarodin.OneToMany, models.Product{}, "AttributeValues", models.ProductAttributeValue{})
)

// DefaultIdentifiers returns the natural keys of the catalogue models
func DefaultIdentifiers() *oscarodin.Identifiers {
	ids := oscarodin.NewIdentifiers()
	oscarodin.Register(ids,
		oscarodin.Column("code", func(c *models.Category) interface{} { return c.Code }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("upc", func(p *models.Product) interface{} { return p.UPC }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("product_id", func(s *models.StockRecord) interface{} { return s.ProductID }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("slug", func(c *models.ProductClass) interface{} { return c.Slug }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("code", func(i *models.ProductImage) interface{} { return i.Code }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("code", func(p *models.Partner) interface{} { return p.Code }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("code", func(a *models.ProductAttribute) interface{} { return a.Code }),
		oscarodin.Column("product_class_id", func(a *models.ProductAttribute) interface{} { return a.ProductClassID }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("product_id", func(v *models.ProductAttributeValue) interface{} { return v.ProductID }),
		oscarodin.Column("attribute_id", func(v *models.ProductAttributeValue) interface{} { return v.AttributeID }),
	)
	oscarodin.Register(ids,
		oscarodin.Column("product_id", func(pc *models.ProductCategory) interface{} { return pc.ProductID }),
		oscarodin.Column("category_id", func(pc *models.ProductCategory) interface{} { return pc.CategoryID }),
	)
	return ids
}
