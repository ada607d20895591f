package oscarodin

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

// Lookuper finds existing rows by natural key. keys holds one tuple per
// candidate, with values in the order of columns. The result maps the Key of
// every tuple found to the primary key of its row.
type Lookuper interface {
	Lookup(ctx context.Context, table *tags.TableMetadata, columns []string, keys [][]interface{}) (map[Key]interface{}, error)
}

// Classification partitions a batch of records into rows to insert and rows
// that already exist
type Classification struct {
	Create []interface{}
	Update []interface{}
}

// Classifier decides, for a batch of records, which are new and which update
// an existing row
type Classifier struct {
	store       Lookuper
	identifiers *Identifiers
	logger      *zap.Logger
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithClassifierLogger sets the logger used for debug output
func WithClassifierLogger(logger *zap.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier returns a classifier looking rows up in store by the natural
// keys configured in identifiers
func NewClassifier(store Lookuper, identifiers *Identifiers, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		store:       store,
		identifiers: identifiers,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identifiers returns the natural key table of the classifier
func (c *Classifier) Identifiers() *Identifiers {
	return c.identifiers
}

// Classify partitions records of model into records to create and records to
// update. Records of a model without a natural key are all created.
// Records found in the database get the primary key of their row and are
// marked persisted, so saving them performs an update.
func (c *Classifier) Classify(ctx context.Context, model reflect.Type, records []interface{}) (Classification, error) {
	model = reflectutil.StructType(model)
	result := Classification{
		Create: []interface{}{},
		Update: []interface{}{},
	}

	if !c.identifiers.Has(model) {
		result.Create = append(result.Create, records...)
		return result, nil
	}
	if len(records) == 0 {
		return result, nil
	}

	recordKeys := make([]Key, len(records))
	lookupKeys := make([][]interface{}, 0, len(records))
	seen := make(map[Key]bool, len(records))
	for i, record := range records {
		values, _, err := c.identifiers.Values(record)
		if err != nil {
			return Classification{}, err
		}
		key := NewKey(values...)
		recordKeys[i] = key
		if !seen[key] {
			seen[key] = true
			lookupKeys = append(lookupKeys, values)
		}
	}

	tableMetadata := tags.TableMetadataFromType(model)
	existing, err := c.store.Lookup(ctx, tableMetadata, c.identifiers.Columns(model), lookupKeys)
	if err != nil {
		return Classification{}, fmt.Errorf("looking up existing %s: %w", model.Name(), err)
	}

	for i, record := range records {
		id, found := existing[recordKeys[i]]
		if !found {
			result.Create = append(result.Create, record)
			continue
		}
		if err := SetPrimaryKey(record, id); err != nil {
			return Classification{}, err
		}
		result.Update = append(result.Update, record)
	}

	c.logger.Debug("classified records",
		zap.String("model", model.Name()),
		zap.Int("create", len(result.Create)),
		zap.Int("update", len(result.Update)),
	)

	return result, nil
}

// ClassifyRecords is Classify for a typed slice of records
func ClassifyRecords[T any](ctx context.Context, c *Classifier, records []*T) (create []*T, update []*T, err error) {
	erased := make([]interface{}, len(records))
	for i, record := range records {
		erased[i] = record
	}

	result, err := c.Classify(ctx, reflect.TypeOf((*T)(nil)).Elem(), erased)
	if err != nil {
		return nil, nil, err
	}

	create = make([]*T, 0, len(result.Create))
	for _, record := range result.Create {
		create = append(create, record.(*T))
	}
	update = make([]*T, 0, len(result.Update))
	for _, record := range result.Update {
		update = append(update, record.(*T))
	}
	return create, update, nil
}
