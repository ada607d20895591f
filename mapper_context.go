package oscarodin

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

// Association links an owner record to related records
type Association struct {
	Owner   interface{}
	Related []interface{}
}

// AttributeData holds dynamic attribute values of an owner record, keyed by
// attribute code
type AttributeData struct {
	Owner  interface{}
	Values map[string]interface{}
}

// RelationSet is the classification of every record buffered for a relation
type RelationSet struct {
	Relation Relation
	Classification

	identifiers *Identifiers
	canonical   map[Key]interface{}
	duplicates  []duplicate
}

type duplicate struct {
	key    Key
	record interface{}
}

// Duplicates returns, in batch order, the records that were collapsed into a
// canonical record sharing their natural key
func (rs RelationSet) Duplicates() []interface{} {
	records := make([]interface{}, 0, len(rs.duplicates))
	for _, dup := range rs.duplicates {
		records = append(records, dup.record)
	}
	return records
}

// SyncDuplicates copies the primary key of each canonical record onto the
// records collapsed into it. Call it once the canonical records are saved.
func (rs RelationSet) SyncDuplicates() error {
	for _, dup := range rs.duplicates {
		id := PrimaryKey(rs.canonical[dup.key])
		if id == nil {
			continue
		}
		if err := SetPrimaryKey(dup.record, id); err != nil {
			return err
		}
	}
	return nil
}

/*
MapperContext buffers the related records found while mapping a batch of
owner records. The buffers are append-only; the Relations methods flatten and
classify them on every call, so the owners can be saved first and the related
records after them.

A MapperContext is created per batch and is not safe for concurrent use.
*/
type MapperContext struct {
	classifier *Classifier

	foreignKeyItems *orderedmap.OrderedMap[Relation, []interface{}]
	manyToManyItems *orderedmap.OrderedMap[Relation, []Association]
	manyToOneItems  *orderedmap.OrderedMap[Relation, []Association]
	oneToManyItems  *orderedmap.OrderedMap[Relation, []Association]

	fieldsToUpdate []string
	attributeData  []AttributeData
}

// NewMapperContext returns an empty context classifying with classifier
func NewMapperContext(classifier *Classifier) *MapperContext {
	return &MapperContext{
		classifier:      classifier,
		foreignKeyItems: orderedmap.NewOrderedMap[Relation, []interface{}](),
		manyToManyItems: orderedmap.NewOrderedMap[Relation, []Association](),
		manyToOneItems:  orderedmap.NewOrderedMap[Relation, []Association](),
		oneToManyItems:  orderedmap.NewOrderedMap[Relation, []Association](),
	}
}

// AddForeignKey buffers the target of a foreign key. Instances that already
// have a primary key are skipped, they exist.
func (mc *MapperContext) AddForeignKey(relation Relation, instance interface{}) {
	if isNilRecord(instance) || PrimaryKey(instance) != nil {
		return
	}
	items, _ := mc.foreignKeyItems.Get(relation)
	mc.foreignKeyItems.Set(relation, append(items, instance))
}

// AddManyToMany buffers the records related to owner through relation
func (mc *MapperContext) AddManyToMany(relation Relation, owner interface{}, related []interface{}) {
	appendAssociation(mc.manyToManyItems, relation, owner, related)
}

// AddManyToOne buffers the records related to owner through relation
func (mc *MapperContext) AddManyToOne(relation Relation, owner interface{}, related []interface{}) {
	appendAssociation(mc.manyToOneItems, relation, owner, related)
}

// AddOneToMany buffers the records related to owner through relation
func (mc *MapperContext) AddOneToMany(relation Relation, owner interface{}, related []interface{}) {
	appendAssociation(mc.oneToManyItems, relation, owner, related)
}

func appendAssociation(items *orderedmap.OrderedMap[Relation, []Association], relation Relation, owner interface{}, related []interface{}) {
	associations, _ := items.Get(relation)
	items.Set(relation, append(associations, Association{Owner: owner, Related: related}))
}

// AddAttributeData buffers dynamic attribute values for owner
func (mc *MapperContext) AddAttributeData(owner interface{}, values map[string]interface{}) {
	mc.attributeData = append(mc.attributeData, AttributeData{Owner: owner, Values: values})
}

// AttributeData returns the buffered attribute values in insertion order
func (mc *MapperContext) AttributeData() []AttributeData {
	return mc.attributeData
}

// SetFieldsToUpdate restricts updates to the given fields. Names may be
// struct field names or column names.
func (mc *MapperContext) SetFieldsToUpdate(fields []string) {
	mc.fieldsToUpdate = fields
}

// FieldsToUpdate returns the fields to update that exist on model, or nil
// when every field should be updated
func (mc *MapperContext) FieldsToUpdate(model reflect.Type) []string {
	tableMetadata := tags.TableMetadataFromType(reflectutil.StructType(model))
	var fields []string
	for _, field := range mc.fieldsToUpdate {
		if tableMetadata.HasField(field) {
			fields = append(fields, field)
		}
	}
	return fields
}

// ForeignKeyRelations classifies the buffered foreign key targets per relation
func (mc *MapperContext) ForeignKeyRelations(ctx context.Context) ([]RelationSet, error) {
	sets := make([]RelationSet, 0, mc.foreignKeyItems.Len())
	for el := mc.foreignKeyItems.Front(); el != nil; el = el.Next() {
		set, err := mc.classifyRelation(ctx, el.Key, el.Value)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// ManyToManyRelations classifies the buffered many-to-many records per relation
func (mc *MapperContext) ManyToManyRelations(ctx context.Context) ([]RelationSet, error) {
	return mc.associationRelations(ctx, mc.manyToManyItems)
}

// ManyToOneRelations classifies the buffered many-to-one records per relation
func (mc *MapperContext) ManyToOneRelations(ctx context.Context) ([]RelationSet, error) {
	return mc.associationRelations(ctx, mc.manyToOneItems)
}

// OneToManyRelations classifies the buffered one-to-many records per relation
func (mc *MapperContext) OneToManyRelations(ctx context.Context) ([]RelationSet, error) {
	return mc.associationRelations(ctx, mc.oneToManyItems)
}

// ManyToManyAssociations iterates the buffered many-to-many associations
func (mc *MapperContext) ManyToManyAssociations() iter.Seq2[Relation, Association] {
	return associations(mc.manyToManyItems)
}

// OneToManyAssociations iterates the buffered one-to-many associations, so
// callers can point related records at their saved owner
func (mc *MapperContext) OneToManyAssociations() iter.Seq2[Relation, Association] {
	return associations(mc.oneToManyItems)
}

func associations(items *orderedmap.OrderedMap[Relation, []Association]) iter.Seq2[Relation, Association] {
	return func(yield func(Relation, Association) bool) {
		for el := items.Front(); el != nil; el = el.Next() {
			for _, association := range el.Value {
				if !yield(el.Key, association) {
					return
				}
			}
		}
	}
}

func (mc *MapperContext) associationRelations(ctx context.Context, items *orderedmap.OrderedMap[Relation, []Association]) ([]RelationSet, error) {
	sets := make([]RelationSet, 0, items.Len())
	for el := items.Front(); el != nil; el = el.Next() {
		var all []interface{}
		for _, association := range el.Value {
			all = append(all, association.Related...)
		}
		set, err := mc.classifyRelation(ctx, el.Key, all)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// classifyRelation collapses records sharing a natural key (or the same
// pointer, for models without one) and classifies what is left
func (mc *MapperContext) classifyRelation(ctx context.Context, relation Relation, records []interface{}) (RelationSet, error) {
	identifiers := mc.classifier.Identifiers()
	set := RelationSet{
		Relation:    relation,
		identifiers: identifiers,
		canonical:   map[Key]interface{}{},
	}

	unique := make([]interface{}, 0, len(records))
	seenPointers := make(map[uintptr]bool, len(records))
	for _, record := range records {
		if isNilRecord(record) {
			continue
		}
		value := reflect.ValueOf(record)
		if value.Kind() != reflect.Ptr {
			return RelationSet{}, fmt.Errorf("%s: %T must be a pointer", relation, record)
		}
		if seenPointers[value.Pointer()] {
			continue
		}
		seenPointers[value.Pointer()] = true

		key, ok, err := identifiers.KeyOf(record)
		if err != nil {
			return RelationSet{}, fmt.Errorf("%s: %w", relation, err)
		}
		if !ok {
			unique = append(unique, record)
			continue
		}
		if _, exists := set.canonical[key]; exists {
			set.duplicates = append(set.duplicates, duplicate{key: key, record: record})
			continue
		}
		set.canonical[key] = record
		unique = append(unique, record)
	}

	classification, err := mc.classifier.Classify(ctx, relation.Related, unique)
	if err != nil {
		return RelationSet{}, fmt.Errorf("%s: %w", relation, err)
	}
	set.Classification = classification

	// rows found by the lookup already carry their id
	if err := set.SyncDuplicates(); err != nil {
		return RelationSet{}, err
	}
	return set, nil
}

func isNilRecord(record interface{}) bool {
	if record == nil {
		return true
	}
	value := reflect.ValueOf(record)
	return value.Kind() == reflect.Ptr && value.IsNil()
}
