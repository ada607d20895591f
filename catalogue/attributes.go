package catalogue

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/queryparts"
)

// ErrUnknownAttribute is returned for attribute codes the product class does
// not declare
const ErrUnknownAttribute = oscarodin.Error("unknown attribute")

const dateLayout = "2006-01-02"

// bufferAttributeValues resolves the buffered attribute data of the saved
// products against the attributes of their product class
func (s *saver) bufferAttributeValues(ctx context.Context) error {
	data := s.mc.AttributeData()
	if len(data) == 0 {
		return nil
	}

	var classIDs []int64
	seen := map[int64]bool{}
	for _, item := range data {
		product := item.Owner.(*models.Product)
		if product.ProductClassID == nil {
			return fmt.Errorf("product %s has attributes but no product class", product.UPC)
		}
		if id := *product.ProductClassID; !seen[id] {
			seen[id] = true
			classIDs = append(classIDs, id)
		}
	}

	attributes, err := oscarodin.FilterModels[models.ProductAttribute](ctx, s.orm, oscarodin.FilterRequest{
		FieldFilters: []queryparts.FieldFilter{
			{FieldName: "ProductClassID", FilterValue: classIDs},
		},
	})
	if err != nil {
		return fmt.Errorf("loading product attributes: %w", err)
	}
	byCode := map[oscarodin.Key]*models.ProductAttribute{}
	for _, attribute := range attributes {
		byCode[oscarodin.NewKey(attribute.ProductClassID, attribute.Code)] = attribute
	}

	for _, item := range data {
		product := item.Owner.(*models.Product)

		codes := make([]string, 0, len(item.Values))
		for code := range item.Values {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		values := make([]interface{}, 0, len(codes))
		for _, code := range codes {
			raw := item.Values[code]
			if raw == nil {
				continue
			}
			attribute, ok := byCode[oscarodin.NewKey(*product.ProductClassID, code)]
			if !ok {
				return fmt.Errorf("%w %q for product %s", ErrUnknownAttribute, code, product.UPC)
			}
			value := &models.ProductAttributeValue{
				AttributeID: attribute.ID,
				Attribute:   attribute,
			}
			if err := SetAttributeValue(value, attribute.Type, raw); err != nil {
				return fmt.Errorf("attribute %s of product %s: %w", code, product.UPC, err)
			}
			values = append(values, value)
		}
		s.mc.AddOneToMany(AttributeValuesRelation, product, values)
	}
	return nil
}

// SetAttributeValue writes raw into the column of value matching the
// attribute type, clearing the others
func SetAttributeValue(value *models.ProductAttributeValue, attributeType string, raw interface{}) error {
	value.ValueText = nil
	value.ValueInteger = nil
	value.ValueBoolean = nil
	value.ValueFloat = nil
	value.ValueRich = nil
	value.ValueDate = nil

	switch attributeType {
	case models.AttributeText:
		text := fmt.Sprint(raw)
		value.ValueText = &text
	case models.AttributeRich:
		text := fmt.Sprint(raw)
		value.ValueRich = &text
	case models.AttributeInteger:
		i, err := toInt(raw)
		if err != nil {
			return err
		}
		value.ValueInteger = &i
	case models.AttributeFloat:
		f, err := toFloat(raw)
		if err != nil {
			return err
		}
		value.ValueFloat = &f
	case models.AttributeBoolean:
		b, err := toBool(raw)
		if err != nil {
			return err
		}
		value.ValueBoolean = &b
	case models.AttributeDate:
		d, err := toDate(raw)
		if err != nil {
			return err
		}
		value.ValueDate = &d
	default:
		return fmt.Errorf("unsupported attribute type %q", attributeType)
	}
	return nil
}

// AttributeValue returns the value stored in the column of attributeType
func AttributeValue(value *models.ProductAttributeValue, attributeType string) interface{} {
	switch attributeType {
	case models.AttributeText:
		if value.ValueText != nil {
			return *value.ValueText
		}
	case models.AttributeRich:
		if value.ValueRich != nil {
			return *value.ValueRich
		}
	case models.AttributeInteger:
		if value.ValueInteger != nil {
			return *value.ValueInteger
		}
	case models.AttributeFloat:
		if value.ValueFloat != nil {
			return *value.ValueFloat
		}
	case models.AttributeBoolean:
		if value.ValueBoolean != nil {
			return *value.ValueBoolean
		}
	case models.AttributeDate:
		if value.ValueDate != nil {
			return value.ValueDate.Format(dateLayout)
		}
	}
	return nil
}

func toInt(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return 0, fmt.Errorf("cannot use %T as integer", raw)
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("cannot use %T as float", raw)
}

func toBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("cannot use %T as boolean", raw)
}

func toDate(raw interface{}) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		return time.Parse(dateLayout, strings.TrimSpace(v))
	}
	return time.Time{}, fmt.Errorf("cannot use %T as date", raw)
}
