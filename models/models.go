/*
Package models holds the catalogue tables as oscar tagged structs. Nullable
columns are pointers. Relation fields without a column tag are filled by the
mapping and are never written directly.
*/
package models

import (
	"time"

	"github.com/samar-hassan/django-oscar-odin/metadata"
)

// Product structures
const (
	StructureStandalone = "standalone"
	StructureParent     = "parent"
	StructureChild      = "child"
)

// Attribute types
const (
	AttributeText    = "text"
	AttributeInteger = "integer"
	AttributeBoolean = "boolean"
	AttributeFloat   = "float"
	AttributeRich    = "richtext"
	AttributeDate    = "date"
)

// Partner is a fulfilment partner owning stock records
type Partner struct {
	Metadata metadata.Metadata `oscar:"tablename=partner_partner"`
	ID       int64             `oscar:"primary_key,column=id"`
	Code     string            `oscar:"lookup,column=code" validate:"required"`
	Name     string            `oscar:"column=name"`
}

// ProductClass groups products sharing attributes and shipping rules
type ProductClass struct {
	Metadata         metadata.Metadata   `oscar:"tablename=catalogue_productclass"`
	ID               int64               `oscar:"primary_key,column=id"`
	Name             string              `oscar:"column=name"`
	Slug             string              `oscar:"lookup,column=slug" validate:"required"`
	RequiresShipping bool                `oscar:"column=requires_shipping"`
	TrackStock       bool                `oscar:"column=track_stock"`
	Attributes       []*ProductAttribute `oscar:"child,foreign_key=ProductClassID" validate:"-"`
}

// Category is a node of the category tree
type Category struct {
	Metadata    metadata.Metadata `oscar:"tablename=catalogue_category"`
	ID          int64             `oscar:"primary_key,column=id"`
	Code        string            `oscar:"lookup,column=code"`
	Name        string            `oscar:"column=name" validate:"required"`
	Slug        string            `oscar:"column=slug"`
	Description string            `oscar:"column=description"`
	IsPublic    bool              `oscar:"column=is_public"`
	Path        string            `oscar:"column=path"`
	Depth       int               `oscar:"column=depth"`
}

// Product is a catalogue product
type Product struct {
	Metadata       metadata.Metadata `oscar:"tablename=catalogue_product"`
	ID             int64             `oscar:"primary_key,column=id"`
	UPC            string            `oscar:"lookup,column=upc"`
	Structure      string            `oscar:"column=structure" validate:"omitempty,oneof=standalone parent child"`
	Title          string            `oscar:"column=title"`
	Slug           string            `oscar:"column=slug"`
	Description    string            `oscar:"column=description"`
	IsPublic       bool              `oscar:"column=is_public"`
	IsDiscountable bool              `oscar:"column=is_discountable"`
	Rating         *float64          `oscar:"column=rating"`
	ParentID       *int64            `oscar:"foreign_key,related=Parent,column=parent_id"`
	ProductClassID *int64            `oscar:"foreign_key,related=ProductClass,column=product_class_id"`
	DateCreated    time.Time         `oscar:"column=date_created,audit=created_at"`
	DateUpdated    time.Time         `oscar:"column=date_updated,audit=updated_at"`

	Parent          *Product                 `validate:"-"`
	ProductClass    *ProductClass            `validate:"-"`
	Images          []*ProductImage          `oscar:"child,foreign_key=ProductID" validate:"-"`
	StockRecords    []*StockRecord           `oscar:"child,foreign_key=ProductID" validate:"-"`
	AttributeValues []*ProductAttributeValue `oscar:"child,foreign_key=ProductID" validate:"-"`
	Categories      []*Category              `validate:"-"`
}

// ProductCategory links a product to a category
type ProductCategory struct {
	Metadata   metadata.Metadata `oscar:"tablename=catalogue_productcategory"`
	ID         int64             `oscar:"primary_key,column=id"`
	ProductID  int64             `oscar:"lookup,foreign_key,related=Product,column=product_id" validate:"required"`
	CategoryID int64             `oscar:"lookup,foreign_key,related=Category,column=category_id" validate:"required"`

	Product  *Product  `validate:"-"`
	Category *Category `validate:"-"`
}

// ProductImage is an image of a product. Original holds the stored path or
// the source URL.
type ProductImage struct {
	Metadata     metadata.Metadata `oscar:"tablename=catalogue_productimage"`
	ID           int64             `oscar:"primary_key,column=id"`
	ProductID    int64             `oscar:"foreign_key,related=Product,column=product_id" validate:"required"`
	Code         string            `oscar:"lookup,column=code"`
	Original     string            `oscar:"column=original"`
	Caption      string            `oscar:"column=caption"`
	DisplayOrder int               `oscar:"column=display_order" validate:"min=0"`
	DateCreated  time.Time         `oscar:"column=date_created,audit=created_at"`

	Product *Product `validate:"-"`
}

// StockRecord holds the price and stock of a product at a partner
type StockRecord struct {
	Metadata      metadata.Metadata `oscar:"tablename=partner_stockrecord"`
	ID            int64             `oscar:"primary_key,column=id"`
	ProductID     int64             `oscar:"lookup,foreign_key,related=Product,column=product_id" validate:"required"`
	PartnerID     int64             `oscar:"foreign_key,related=Partner,column=partner_id" validate:"required"`
	PartnerSKU    string            `oscar:"column=partner_sku"`
	PriceCurrency string            `oscar:"column=price_currency" validate:"omitempty,len=3"`
	Price         *float64          `oscar:"column=price"`
	NumInStock    *int              `oscar:"column=num_in_stock"`
	NumAllocated  *int              `oscar:"column=num_allocated"`
	DateCreated   time.Time         `oscar:"column=date_created,audit=created_at"`
	DateUpdated   time.Time         `oscar:"column=date_updated,audit=updated_at"`

	Product *Product `validate:"-"`
	Partner *Partner `validate:"-"`
}

// ProductAttribute declares an attribute of a product class
type ProductAttribute struct {
	Metadata       metadata.Metadata `oscar:"tablename=catalogue_productattribute"`
	ID             int64             `oscar:"primary_key,column=id"`
	ProductClassID *int64            `oscar:"lookup,foreign_key,related=ProductClass,column=product_class_id"`
	Code           string            `oscar:"lookup,column=code" validate:"required"`
	Name           string            `oscar:"column=name"`
	Type           string            `oscar:"column=type" validate:"oneof=text integer boolean float richtext date"`
	Required       bool              `oscar:"column=required"`

	ProductClass *ProductClass `validate:"-"`
}

// ProductAttributeValue is the value of one attribute for one product. Only
// the column matching the attribute type is set.
type ProductAttributeValue struct {
	Metadata     metadata.Metadata `oscar:"tablename=catalogue_productattributevalue"`
	ID           int64             `oscar:"primary_key,column=id"`
	ProductID    int64             `oscar:"lookup,foreign_key,related=Product,column=product_id" validate:"required"`
	AttributeID  int64             `oscar:"lookup,foreign_key,related=Attribute,column=attribute_id" validate:"required"`
	ValueText    *string           `oscar:"column=value_text"`
	ValueInteger *int64            `oscar:"column=value_integer"`
	ValueBoolean *bool             `oscar:"column=value_boolean"`
	ValueFloat   *float64          `oscar:"column=value_float"`
	ValueRich    *string           `oscar:"column=value_richtext"`
	ValueDate    *time.Time        `oscar:"column=value_date"`

	Product   *Product          `validate:"-"`
	Attribute *ProductAttribute `validate:"-"`
}
