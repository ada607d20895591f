/* Package reflectutil contains basic go reflection utility funcs
 */
package reflectutil

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// ErrNotStruct is returned when a model is not a struct or a pointer to one
var ErrNotStruct = errors.New("Models must be structs")

var (
	bytesType = reflect.TypeOf([]byte(nil))
	timeType  = reflect.TypeOf(time.Time{})

	timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999", "2006-01-02"}
)

// IsZeroValue returns true if the value provided is the zero value for its type
func IsZeroValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return v.IsZero()
}

// GetStructValue returns the struct behind v, following pointers
func GetStructValue(v interface{}) (reflect.Value, error) {
	value := reflect.ValueOf(v)
	for value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return value, ErrNotStruct
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return value, ErrNotStruct
	}
	return value, nil
}

// StructType returns the struct type behind t, following pointers
func StructType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Interface returns the value held by v, dereferencing non-nil pointers, or
// nil for nil pointers and invalid values
func Interface(v reflect.Value) interface{} {
	for v.IsValid() && v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// SetValue assigns value to field, converting between compatible types and
// allocating pointers as needed. A nil value sets the zero value.
func SetValue(field reflect.Value, value interface{}) error {
	if !field.CanSet() {
		return fmt.Errorf("field of type %s cannot be set", field.Type())
	}
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if b, ok := value.([]byte); ok && field.Type() != bytesType {
		value = string(b)
	}

	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr && field.Kind() != reflect.Ptr {
		if v.IsNil() {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		v = v.Elem()
	}

	switch {
	case v.Type().AssignableTo(field.Type()):
		field.Set(v)
	case field.Kind() == reflect.Ptr && v.Kind() != reflect.Ptr:
		ptr := reflect.New(field.Type().Elem())
		if err := SetValue(ptr.Elem(), v.Interface()); err != nil {
			return err
		}
		field.Set(ptr)
	case field.Kind() == reflect.String && v.Kind() != reflect.String:
		field.SetString(fmt.Sprint(v.Interface()))
	case v.Kind() == reflect.String && field.Type() != v.Type():
		return setFromString(field, v.String())
	case isNumeric(v.Kind()) && isNumeric(field.Kind()):
		field.Set(v.Convert(field.Type()))
	case v.Type().ConvertibleTo(field.Type()) && v.Kind() != reflect.String:
		field.Set(v.Convert(field.Type()))
	default:
		return fmt.Errorf("cannot assign %s to field of type %s", v.Type(), field.Type())
	}
	return nil
}

// setFromString parses text, as returned by drivers using a text protocol,
// into numeric, bool and time fields
func setFromString(field reflect.Value, text string) error {
	switch {
	case field.Type() == timeType:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				field.Set(reflect.ValueOf(t))
				return nil
			}
		}
		return fmt.Errorf("cannot parse %q as time", text)
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.Kind() >= reflect.Int && field.Kind() <= reflect.Int64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case field.Kind() >= reflect.Uint && field.Kind() <= reflect.Uint64:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)
	case field.Kind() == reflect.Float32 || field.Kind() == reflect.Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.ValueOf(text).Type().ConvertibleTo(field.Type()):
		field.Set(reflect.ValueOf(text).Convert(field.Type()))
	default:
		return fmt.Errorf("cannot assign string to field of type %s", field.Type())
	}
	return nil
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
