package catalogue

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/mapping"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/queryparts"
	"github.com/samar-hassan/django-oscar-odin/resources"
	"github.com/samar-hassan/django-oscar-odin/stringutil"
)

// AutomagicAttributes are the attributes written by AutomagicMapping, by code
var AutomagicAttributes = map[string]string{
	"stock_id":       models.AttributeText,
	"units":          models.AttributeText,
	"unit_scale":     models.AttributeText,
	"unit_size":      models.AttributeText,
	"units_per_case": models.AttributeText,
	"max_qty":        models.AttributeInteger,
	"min_qty":        models.AttributeInteger,
	"brand":          models.AttributeText,
	"barcodes":       models.AttributeText,
	"promoted":       models.AttributeBoolean,
	"badge_one":      models.AttributeText,
	"keywords":       models.AttributeText,
}

// AutomagicProductClass is the product class of Automagic products unless
// another one is given
const AutomagicProductClass = "default"

// AutomagicMapping maps Automagic feed rows to product resources of
// productClass. When partner is set, PRICE and STOCK fill a stock record at
// that partner.
func AutomagicMapping(productClass, partner string) *mapping.Mapping[resources.AutomagicProductRow, resources.Product] {
	if productClass == "" {
		productClass = AutomagicProductClass
	}
	m := mapping.New[resources.AutomagicProductRow, resources.Product](mapping.WithoutAutoMap()).
		Define("SKU", "UPC").
		Define("ShortDescription", "Description").
		MapField("Title", func(src *resources.AutomagicProductRow) (interface{}, error) {
			if src.Title != "" {
				return src.Title, nil
			}
			return src.SKU, nil
		}).
		MapField("Slug", func(src *resources.AutomagicProductRow) (interface{}, error) {
			if src.Title != "" {
				return stringutil.Slugify(src.Title), nil
			}
			return stringutil.Slugify(src.SKU), nil
		}).
		AssignField("ProductClass", func() interface{} {
			return &resources.ProductClass{Slug: productClass}
		}).
		AssignField("Structure", func() interface{} { return models.StructureStandalone }).
		MapField("Attributes", func(src *resources.AutomagicProductRow) (interface{}, error) {
			maxQty, err := quantity(src.MaxQty)
			if err != nil {
				return nil, fmt.Errorf("MAX_QTY: %w", err)
			}
			minQty, err := quantity(src.MinQty)
			if err != nil {
				return nil, fmt.Errorf("MIN_QTY: %w", err)
			}
			return map[string]interface{}{
				"stock_id":       "",
				"units":          src.Units,
				"unit_scale":     src.UnitScale,
				"unit_size":      src.UnitSize,
				"units_per_case": src.UnitsPerCase,
				"max_qty":        optional(maxQty),
				"min_qty":        optional(minQty),
				"brand":          src.Brand,
				"barcodes":       src.Barcodes,
				"promoted":       src.Promoted != "0",
				"badge_one":      src.BadgeOne,
				"keywords":       src.Keywords,
			}, nil
		})

	if partner == "" {
		return m
	}
	return m.
		MapField("Price", func(src *resources.AutomagicProductRow) (interface{}, error) {
			if src.Price == "" {
				return nil, nil
			}
			return strconv.ParseFloat(src.Price, 64)
		}).
		MapField("Availability", func(src *resources.AutomagicProductRow) (interface{}, error) {
			stock, err := quantity(src.Stock)
			if err != nil || stock == nil {
				return nil, err
			}
			return int(*stock), nil
		}).
		AssignField("Partner", func() interface{} {
			return &resources.Partner{Code: partner}
		})
}

// quantity parses a decimal quantity such as "12.0", truncating the
// fraction. Empty strings are nil.
func quantity(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	n := int64(f)
	return &n, nil
}

func optional(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func displayName(code string) string {
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(code))
}

// EnsureAttributes creates the product class with the given slug and the
// attributes it lacks, by code and type. It returns the product class and the
// number of attributes created.
func EnsureAttributes(ctx context.Context, orm oscarodin.ORM, slug string, attributes map[string]string) (*models.ProductClass, int, error) {
	classes, err := oscarodin.FilterModels[models.ProductClass](ctx, orm, oscarodin.FilterRequest{
		FilterModel: models.ProductClass{Slug: slug},
	})
	if err != nil {
		return nil, 0, err
	}

	var class *models.ProductClass
	if len(classes) > 0 {
		class = classes[0]
	} else {
		class = &models.ProductClass{Name: displayName(slug), Slug: slug, TrackStock: true}
		if err := orm.Insert(ctx, []interface{}{class}); err != nil {
			return nil, 0, fmt.Errorf("creating product class %s: %w", slug, err)
		}
	}

	existing, err := oscarodin.FilterModels[models.ProductAttribute](ctx, orm, oscarodin.FilterRequest{
		FieldFilters: []queryparts.FieldFilter{
			{FieldName: "ProductClassID", FilterValue: class.ID},
		},
	})
	if err != nil {
		return nil, 0, err
	}
	known := map[string]bool{}
	for _, attribute := range existing {
		known[attribute.Code] = true
	}

	codes := make([]string, 0, len(attributes))
	for code := range attributes {
		if !known[code] {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	missing := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		missing = append(missing, &models.ProductAttribute{
			ProductClassID: &class.ID,
			Code:           code,
			Name:           displayName(code),
			Type:           attributes[code],
		})
	}
	if len(missing) > 0 {
		if err := orm.Insert(ctx, missing); err != nil {
			return nil, 0, fmt.Errorf("creating attributes of %s: %w", slug, err)
		}
	}
	return class, len(missing), nil
}
