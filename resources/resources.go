/*
Package resources holds the plain catalogue structs used for data
interchange. Resources carry natural keys instead of database ids and nest
their relations.
*/
package resources

import (
	"time"

	"github.com/samar-hassan/django-oscar-odin/metadata"
)

// ProductClass resource
type ProductClass struct {
	Metadata         metadata.Metadata `json:"-"`
	Name             string            `json:"name,omitempty"`
	Slug             string            `json:"slug" validate:"required"`
	RequiresShipping bool              `json:"requires_shipping"`
	TrackStock       bool              `json:"track_stock"`
}

// Category resource
type Category struct {
	Metadata    metadata.Metadata `json:"-"`
	Code        string            `json:"code" validate:"required"`
	Name        string            `json:"name,omitempty"`
	Slug        string            `json:"slug,omitempty"`
	Description string            `json:"description,omitempty"`
	IsPublic    bool              `json:"is_public"`
}

// Image resource. Original is a stored path or a URL.
type Image struct {
	Metadata     metadata.Metadata `json:"-"`
	Code         string            `json:"code" validate:"required"`
	Original     string            `json:"original" validate:"required"`
	Caption      string            `json:"caption,omitempty"`
	DisplayOrder int               `json:"display_order" validate:"min=0"`
}

// Partner resource
type Partner struct {
	Metadata metadata.Metadata `json:"-"`
	Code     string            `json:"code" validate:"required"`
	Name     string            `json:"name,omitempty"`
}

// Product resource. Price, currency, availability and partner describe the
// stock record of the product.
type Product struct {
	Metadata       metadata.Metadata `json:"-"`
	ID             int64             `json:"id,omitempty"`
	UPC            string            `json:"upc" validate:"required"`
	Structure      string            `json:"structure,omitempty" validate:"omitempty,oneof=standalone parent child"`
	Title          string            `json:"title"`
	Slug           string            `json:"slug,omitempty"`
	Description    string            `json:"description,omitempty"`
	IsPublic       bool              `json:"is_public"`
	IsDiscountable bool              `json:"is_discountable"`
	Rating         *float64          `json:"rating,omitempty"`

	Price        *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	Currency     string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Availability *int     `json:"availability,omitempty"`
	Partner      *Partner `json:"partner,omitempty"`

	ProductClass *ProductClass          `json:"product_class,omitempty"`
	Parent       *Product               `json:"parent,omitempty" validate:"-"`
	Categories   []*Category            `json:"categories,omitempty" validate:"dive"`
	Images       []*Image               `json:"images,omitempty" validate:"dive"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`

	DateCreated *time.Time `json:"date_created,omitempty"`
	DateUpdated *time.Time `json:"date_updated,omitempty"`
}

// ProductRow is the flat CSV rendering of a product. Categories and images
// are separated by Separator.
type ProductRow struct {
	UPC          string `csv:"upc" validate:"required"`
	Title        string `csv:"title"`
	Slug         string `csv:"slug"`
	Structure    string `csv:"structure"`
	Description  string `csv:"description"`
	IsPublic     bool   `csv:"is_public"`
	ProductClass string `csv:"product_class"`
	Categories   string `csv:"categories"`
	Images       string `csv:"images"`
	Price        string `csv:"price"`
	Currency     string `csv:"currency"`
	Availability string `csv:"availability"`
	Partner      string `csv:"partner"`
}

// Separator joins list values inside one CSV cell
const Separator = "|"

// AutomagicProductRow is one row of an Automagic product feed
type AutomagicProductRow struct {
	SKU              string `csv:"SKU" validate:"required"`
	Title            string `csv:"TITLE"`
	CategoryIDs      string `csv:"CATEGORY_IDS"`
	Price            string `csv:"PRICE"`
	SpecialPrice     string `csv:"SPECIAL_PRICE"`
	ImageURL         string `csv:"IMAGE_URL"`
	Units            string `csv:"UNITS"`
	UnitScale        string `csv:"UNIT_SCALE"`
	UnitSize         string `csv:"UNIT_SIZE"`
	UnitsPerCase     string `csv:"UNITS_PER_CASE"`
	Stock            string `csv:"STOCK"`
	MaxQty           string `csv:"MAX_QTY"`
	MinQty           string `csv:"MIN_QTY"`
	ShortDescription string `csv:"SHORT_DESCRIPTION"`
	Description      string `csv:"DESCRIPTION"`
	Brand            string `csv:"BRAND"`
	Barcodes         string `csv:"BARCODES"`
	Promoted         string `csv:"PROMOTED"`
	BadgeOne         string `csv:"BADGE_ONE"`
	Keywords         string `csv:"KEYWORDS"`
}
