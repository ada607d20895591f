package oscarodin

import (
	"fmt"
	"reflect"

	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

// RelationKind is the cardinality of a relation between two models
type RelationKind int

const (
	// ForeignKey relation, the owner row points at one related row
	ForeignKey RelationKind = iota
	// ManyToMany relation, rows are linked through a join table
	ManyToMany
	// ManyToOne relation, seen from the side holding the foreign key
	ManyToOne
	// OneToMany relation, related rows point back at the owner
	OneToMany
)

func (k RelationKind) String() string {
	switch k {
	case ForeignKey:
		return "foreign-key"
	case ManyToMany:
		return "many-to-many"
	case ManyToOne:
		return "many-to-one"
	case OneToMany:
		return "one-to-many"
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// Relation describes a relation field on an owner model. Relations are
// comparable and key the buffers of a MapperContext.
type Relation struct {
	Name    string
	Kind    RelationKind
	Owner   reflect.Type
	Related reflect.Type
}

// NewRelation describes the relation name of kind between owner and related.
// owner and related are sample values (or pointers) of the two models.
func NewRelation(kind RelationKind, owner interface{}, name string, related interface{}) Relation {
	return Relation{
		Name:    name,
		Kind:    kind,
		Owner:   reflectutil.StructType(reflect.TypeOf(owner)),
		Related: reflectutil.StructType(reflect.TypeOf(related)),
	}
}

// RelationFromField reads the relation declared by the oscar tags of a field.
// child fields are one-to-many relations, foreign_key fields with a related
// field are foreign keys named after the related field.
func RelationFromField(owner interface{}, fieldName string) (Relation, error) {
	ownerType := reflectutil.StructType(reflect.TypeOf(owner))
	if ownerType == nil || ownerType.Kind() != reflect.Struct {
		return Relation{}, reflectutil.ErrNotStruct
	}
	tableMetadata := tags.TableMetadataFromType(ownerType)

	if child := tableMetadata.GetChildField(fieldName); child != nil {
		return Relation{
			Name:    fieldName,
			Kind:    OneToMany,
			Owner:   ownerType,
			Related: reflectutil.StructType(child.FieldType.Elem()),
		}, nil
	}

	if foreignKey := tableMetadata.GetForeignKeyFieldFromRelation(fieldName); foreignKey != nil && foreignKey.RelatedType != nil {
		return Relation{
			Name:    fieldName,
			Kind:    ForeignKey,
			Owner:   ownerType,
			Related: reflectutil.StructType(foreignKey.RelatedType),
		}, nil
	}

	return Relation{}, fmt.Errorf("field %s of %s is not a relation", fieldName, ownerType.Name())
}

func (r Relation) String() string {
	var owner, related string
	if r.Owner != nil {
		owner = r.Owner.Name()
	}
	if r.Related != nil {
		related = r.Related.Name()
	}
	return fmt.Sprintf("%s.%s (%s %s)", owner, r.Name, r.Kind, related)
}
