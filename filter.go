package oscarodin

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/query"
	"github.com/samar-hassan/django-oscar-odin/queryparts"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

/*
FilterRequest selects rows of the model of FilterModel. Every non-zero column
field of FilterModel must match, as must every FieldFilter.

Associations name related fields to load for every result. A foreign key
relation (ProductClass, Parent.ProductClass) is left joined into the same
select; a child field (Images) is loaded with one more select per level.
Paths are dotted and may continue below a child (StockRecords.Partner).
*/
type FilterRequest struct {
	FilterModel  interface{}
	FieldFilters []queryparts.FieldFilter
	OrderBy      []queryparts.OrderByRequest
	Associations []string
}

// FilterModel returns pointers to the models matching request. Results are
// marked persisted.
func (p *PersistenceORM) FilterModel(ctx context.Context, request FilterRequest) ([]interface{}, error) {
	filterModelValue, err := reflectutil.GetStructValue(request.FilterModel)
	if err != nil {
		return nil, err
	}
	modelType := filterModelValue.Type()
	tableMetadata, err := tableMetadataFor(modelType)
	if err != nil {
		return nil, err
	}

	tbl := query.New(tableMetadata.GetTableName())
	tbl.AddColumns(tableMetadata.GetColumnNames())

	for _, field := range tableMetadata.GetFields() {
		fieldValue := filterModelValue.Field(field.GetIndex())
		if reflectutil.IsZeroValue(fieldValue) {
			continue
		}
		tbl.AddWhere(field.GetColumnName(), reflectutil.Interface(fieldValue))
	}

	for _, filter := range request.FieldFilters {
		column, err := columnFor(tableMetadata, filter.FieldName)
		if err != nil {
			return nil, err
		}
		tbl.AddWhere(column, filter.FilterValue)
	}

	for _, orderBy := range request.OrderBy {
		column, err := columnFor(tableMetadata, orderBy.Field)
		if err != nil {
			return nil, err
		}
		tbl.AddOrderBy(column, orderBy.Descending)
	}

	joins, children, err := planAssociations(tbl, tableMetadata, request.Associations)
	if err != nil {
		return nil, err
	}

	results, err := p.selectModels(ctx, modelType, tbl, joins)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		if err := p.loadChildren(ctx, child, results); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// joinedRelation is a foreign key association selected through a join
type joinedRelation struct {
	path       string
	parentPath string
	field      string
	table      *query.Table
	metadata   *tags.TableMetadata
}

// childAssociation is a child field loaded after its parents, with the
// associations to load on the children
type childAssociation struct {
	child        *tags.Child
	associations []string
}

// planAssociations joins the foreign key associations onto tbl and groups the
// child associations by child field
func planAssociations(tbl *query.Table, tableMetadata *tags.TableMetadata, associations []string) ([]*joinedRelation, []*childAssociation, error) {
	var joins []*joinedRelation
	joined := map[string]*joinedRelation{}
	var children []*childAssociation
	byChild := map[string]*childAssociation{}

	for _, association := range associations {
		parts := strings.Split(association, ".")

		if child := tableMetadata.GetChildField(parts[0]); child != nil {
			c, ok := byChild[child.FieldName]
			if !ok {
				c = &childAssociation{child: child}
				byChild[child.FieldName] = c
				children = append(children, c)
			}
			if len(parts) > 1 {
				c.associations = append(c.associations, strings.Join(parts[1:], "."))
			}
			continue
		}

		parentTable, parentMetadata, parentPath := tbl, tableMetadata, ""
		for i, name := range parts {
			path := strings.Join(parts[:i+1], ".")
			if existing, ok := joined[path]; ok {
				parentTable, parentMetadata, parentPath = existing.table, existing.metadata, path
				continue
			}

			foreignKey := parentMetadata.GetForeignKeyFieldFromRelation(name)
			if foreignKey == nil || foreignKey.RelatedType == nil {
				return nil, nil, fmt.Errorf("%s is not an association of %s", name, parentMetadata.GetModelType().Name())
			}
			relatedMetadata, err := tableMetadataFor(reflectutil.StructType(foreignKey.RelatedType))
			if err != nil {
				return nil, nil, err
			}

			table := parentTable.AppendJoin(relatedMetadata.GetTableName(), relatedMetadata.GetPrimaryKeyColumnName(), foreignKey.KeyColumn, "left")
			table.AddColumns(relatedMetadata.GetColumnNames())

			join := &joinedRelation{
				path:       path,
				parentPath: parentPath,
				field:      name,
				table:      table,
				metadata:   relatedMetadata,
			}
			joined[path] = join
			joins = append(joins, join)
			parentTable, parentMetadata, parentPath = table, relatedMetadata, path
		}
	}
	return joins, children, nil
}

func (p *PersistenceORM) selectModels(ctx context.Context, modelType reflect.Type, tbl *query.Table, joins []*joinedRelation) ([]interface{}, error) {
	sqlString, args, err := tbl.ToSQL(p.dialect)
	if err != nil {
		return nil, err
	}
	rows, err := p.query(ctx, sqlString, args)
	if err != nil {
		return nil, err
	}

	aliases := tbl.FieldAliases()
	results, err := query.Hydrate(modelType, tbl.Alias, aliases, rows)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		metadata.MarkPersisted(reflect.ValueOf(result), true)
	}

	relatedByJoin := make([][]interface{}, len(joins))
	for i, join := range joins {
		if relatedByJoin[i], err = query.Hydrate(join.metadata.GetModelType(), join.table.Alias, aliases, rows); err != nil {
			return nil, err
		}
	}

	for row, result := range results {
		models := map[string]interface{}{"": result}
		for i, join := range joins {
			parent, ok := models[join.parentPath]
			related := relatedByJoin[i][row]
			// a left join without a match hydrates an empty model
			if !ok || PrimaryKey(related) == nil {
				continue
			}
			metadata.MarkPersisted(reflect.ValueOf(related), true)
			if err := setRelated(parent, join.field, related); err != nil {
				return nil, err
			}
			models[join.path] = related
		}
	}
	return results, nil
}

func setRelated(parent interface{}, fieldName string, related interface{}) error {
	parentValue, err := reflectutil.GetStructValue(parent)
	if err != nil {
		return err
	}
	field := parentValue.FieldByName(fieldName)
	relatedValue := reflect.ValueOf(related)
	if field.Kind() != reflect.Ptr {
		relatedValue = relatedValue.Elem()
	}
	field.Set(relatedValue)
	return nil
}

// loadChildren fills the child field of every parent with the rows pointing
// back at it
func (p *PersistenceORM) loadChildren(ctx context.Context, association *childAssociation, parents []interface{}) error {
	if len(parents) == 0 {
		return nil
	}
	child := association.child

	childType := reflectutil.StructType(child.FieldType.Elem())
	childMetadata, err := tableMetadataFor(childType)
	if err != nil {
		return err
	}
	foreignKey, ok := childMetadata.GetField(child.ForeignKey)
	if !ok {
		return fmt.Errorf("missing foreign key %s on child %s", child.ForeignKey, childType.Name())
	}

	parentIDs := make([]interface{}, 0, len(parents))
	for _, parent := range parents {
		if id := PrimaryKey(parent); id != nil {
			parentIDs = append(parentIDs, id)
		}
	}
	if len(parentIDs) == 0 {
		return nil
	}

	tbl := query.New(childMetadata.GetTableName())
	tbl.AddColumns(childMetadata.GetColumnNames())
	tbl.AddWhere(foreignKey.GetColumnName(), parentIDs)
	tbl.AddOrderBy(childMetadata.GetPrimaryKeyColumnName(), false)

	joins, grandchildren, err := planAssociations(tbl, childMetadata, association.associations)
	if err != nil {
		return err
	}
	children, err := p.selectModels(ctx, childType, tbl, joins)
	if err != nil {
		return err
	}
	for _, grandchild := range grandchildren {
		if err := p.loadChildren(ctx, grandchild, children); err != nil {
			return err
		}
	}

	byParent := map[Key][]interface{}{}
	for _, c := range children {
		value, _ := reflectutil.GetStructValue(c)
		key := NewKey(reflectutil.Interface(value.Field(foreignKey.GetIndex())))
		byParent[key] = append(byParent[key], c)
	}

	for _, parent := range parents {
		parentValue, err := reflectutil.GetStructValue(parent)
		if err != nil {
			return err
		}
		field := parentValue.FieldByName(child.FieldName)
		slice := reflect.MakeSlice(field.Type(), 0, 0)
		for _, c := range byParent[NewKey(PrimaryKey(parent))] {
			childValue := reflect.ValueOf(c)
			if field.Type().Elem().Kind() != reflect.Ptr {
				childValue = childValue.Elem()
			}
			slice = reflect.Append(slice, childValue)
		}
		field.Set(slice)
	}
	return nil
}

func columnFor(tableMetadata *tags.TableMetadata, name string) (string, error) {
	if field, ok := tableMetadata.GetField(name); ok {
		return field.GetColumnName(), nil
	}
	if field, ok := tableMetadata.GetFieldByColumn(name); ok {
		return field.GetColumnName(), nil
	}
	return "", fmt.Errorf("%s has no field %s", tableMetadata.GetModelType().Name(), name)
}

// FilterModels is FilterModel returning typed results
func FilterModels[T any](ctx context.Context, orm ORM, request FilterRequest) ([]*T, error) {
	if request.FilterModel == nil {
		request.FilterModel = new(T)
	}
	results, err := orm.FilterModel(ctx, request)
	if err != nil {
		return nil, err
	}
	typed := make([]*T, 0, len(results))
	for _, result := range results {
		model, ok := result.(*T)
		if !ok {
			return nil, fmt.Errorf("expected *%s, got %T", reflect.TypeOf((*T)(nil)).Elem().Name(), result)
		}
		typed = append(typed, model)
	}
	return typed, nil
}
