/*
Package decoding decodes JSON with jsoniter and records, on every struct
carrying a metadata.Metadata field, which fields were present in the payload.
Updates of decoded records then only write those fields.
*/
package decoding

import (
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/stringutil"
)

// Config specifies options for the decoder
type Config struct {
	// TagKey is the struct tag naming JSON fields, json by default
	TagKey string
	// MetadataTagKey is the struct tag read for the omitretrieve option, oscar
	// by default
	MetadataTagKey string
}

// metadataExtension tracks defined fields for every struct type decoded
type metadataExtension struct {
	jsoniter.DummyExtension
	config      *Config
	descriptors sync.Map
}

func (extension *metadataExtension) UpdateStructDescriptor(structDescriptor *jsoniter.StructDescriptor) {
	for _, binding := range structDescriptor.Fields {
		metadataTag, hasMetadataTag := binding.Field.Tag().Lookup(extension.config.MetadataTagKey)
		if hasMetadataTag {
			options := strings.Split(metadataTag, ",")
			if stringutil.StringSliceContainsKey(options, "omitretrieve") {
				binding.FromNames = []string{}
			}
		}
	}
	extension.descriptors.Store(structDescriptor.Type.Type1(), structDescriptor)
}

func (extension *metadataExtension) DecorateDecoder(typ reflect2.Type, decoder jsoniter.ValDecoder) jsoniter.ValDecoder {
	if typ.Kind() != reflect.Struct {
		return decoder
	}
	if !metadata.GetMetadataValue(reflect.New(typ.Type1()).Elem()).IsValid() {
		return decoder
	}
	return &structDecoder{
		valDecoder: decoder,
		typ:        typ,
		extension:  extension,
	}
}

type structDecoder struct {
	valDecoder jsoniter.ValDecoder
	typ        reflect2.Type
	extension  *metadataExtension
}

func (decoder *structDecoder) fieldNames(keys map[string]interface{}) []string {
	stored, ok := decoder.extension.descriptors.Load(decoder.typ.Type1())
	if !ok {
		return nil
	}
	structDesc := stored.(*jsoniter.StructDescriptor)

	var fields []string
	for key := range keys {
		for _, binding := range structDesc.Fields {
			if stringutil.StringSliceContainsKey(binding.FromNames, key) {
				fields = append(fields, binding.Field.Name())
				break
			}
		}
	}
	sort.Strings(fields)
	return fields
}

func (decoder *structDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	raw := iter.SkipAndReturnBytes()
	if iter.Error != nil {
		return
	}

	var keys map[string]interface{}
	if err := jsoniter.Unmarshal(raw, &keys); err == nil && keys != nil {
		objectValue := reflect.NewAt(decoder.typ.Type1(), ptr)
		metadataField := metadata.GetMetadataValue(objectValue.Elem())
		if !metadata.HasDefinedFields(metadataField) {
			metadata.InitializeDefinedFields(metadataField)
		}
		for _, field := range decoder.fieldNames(keys) {
			metadata.AddDefinedField(metadataField, field)
		}
	}

	// the original iterator is past the object, decode from its bytes
	newIter := iter.Pool().BorrowIterator(raw)
	defer iter.Pool().ReturnIterator(newIter)

	decoder.valDecoder.Decode(ptr, newIter)
	if newIter.Error != nil && newIter.Error != io.EOF {
		iter.ReportError("decode "+decoder.typ.String(), newIter.Error.Error())
	}
}

// GetDecoder returns a decoder that implements the standard encoding/json api
func GetDecoder(config *Config) jsoniter.API {
	if config == nil {
		config = &Config{}
	}
	if config.TagKey == "" {
		config.TagKey = "json"
	}
	if config.MetadataTagKey == "" {
		config.MetadataTagKey = "oscar"
	}
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		OnlyTaggedField:        true,
		TagKey:                 config.TagKey,
	}.Froze()
	api.RegisterExtension(&metadataExtension{
		config: config,
	})
	return api
}

var defaultDecoder = GetDecoder(nil)

// Unmarshal decodes data into v with the default decoder
func Unmarshal(data []byte, v interface{}) error {
	return defaultDecoder.Unmarshal(data, v)
}

// Decode reads all of body and decodes it into v with the default decoder
func Decode(body io.Reader, v interface{}) error {
	return defaultDecoder.NewDecoder(body).Decode(v)
}
