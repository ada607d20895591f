package oscarodin

import (
	"reflect"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

// PrimaryKey returns the primary key of record, or nil when it is unset
func PrimaryKey(record interface{}) interface{} {
	value, err := reflectutil.GetStructValue(record)
	if err != nil {
		return nil
	}
	pkField := tags.TableMetadataFromType(value.Type()).GetPrimaryKeyFieldName()
	if pkField == "" {
		return nil
	}
	field := value.FieldByName(pkField)
	if reflectutil.IsZeroValue(field) {
		return nil
	}
	return reflectutil.Interface(field)
}

// SetPrimaryKey writes id into the primary key field of record and marks the
// record as persisted
func SetPrimaryKey(record interface{}, id interface{}) error {
	value, err := reflectutil.GetStructValue(record)
	if err != nil {
		return err
	}
	pkField := tags.TableMetadataFromType(value.Type()).GetPrimaryKeyFieldName()
	if pkField == "" {
		return ErrNoPrimaryKey
	}
	if err := reflectutil.SetValue(value.FieldByName(pkField), id); err != nil {
		return err
	}
	metadata.MarkPersisted(value, true)
	return nil
}

// IsPersisted reports whether record is known to exist in the database
func IsPersisted(record interface{}) bool {
	value, err := reflectutil.GetStructValue(record)
	if err != nil {
		return false
	}
	return metadata.IsPersisted(value)
}

// modelType returns the struct type shared by every record, or ErrMixedModels
func modelType(records []interface{}) (reflect.Type, error) {
	var t reflect.Type
	for _, record := range records {
		value, err := reflectutil.GetStructValue(record)
		if err != nil {
			return nil, err
		}
		if t == nil {
			t = value.Type()
			continue
		}
		if value.Type() != t {
			return nil, ErrMixedModels
		}
	}
	return t, nil
}
