/*
Package query builds the SQL statements oscarodin runs. Selects keep an alias
for every table so joined columns can be mapped back onto their models.
*/
package query

import (
	"fmt"
	"strings"

	sql "github.com/Masterminds/squirrel"
)

const (
	aliasedField string = "%[1]v.%[2]v"
	aliasedCol   string = "%[1]v.%[2]v AS \"%[1]v.%[2]v\""
	aliasedJoin  string = "%[2]v AS %[1]v ON %[3]v = %[4]v"
)

/*
Table represents a select, and is the root of the structure. Start here to build
a query by calling

	tbl := New("catalogue_product")
*/
type Table struct {
	root    *Table
	Counter int
	Alias   string
	Name    string
	columns []string
	Joins   []Join
	Wheres  []Where
	orderBy []string
}

/*
Join holds a very simple join definition, including a pointer to the parent table
and the joined table and type of join
*/
type Join struct {
	Type        string
	Parent      *Table
	ParentField string
	JoinField   string
	Table       *Table
}

/*
Where holds a very simple where clause. A slice value results in an IN check,
a nil value in IS NULL, anything else in an = check.
*/
type Where struct {
	Field string
	Val   interface{}
}

/*
FieldDescriptor holds the table/field info for an aliased field
*/
type FieldDescriptor struct {
	Alias string
	Table string
	Field string
}

// New returns a new table aliased t0
func New(name string) *Table {
	return &Table{
		Counter: 1,
		Alias:   "t0",
		Name:    name,
		columns: make([]string, 0),
	}
}

/*
AddColumns adds an array of columns to the current table
*/
func (t *Table) AddColumns(cols []string) {
	t.columns = append(t.columns, cols...)
}

/*
AddWhere adds one where clause on a column of this table
*/
func (t *Table) AddWhere(field string, val interface{}) {
	t.Wheres = append(t.Wheres, Where{
		Field: field,
		Val:   val,
	})
}

/*
AddOrderBy sorts the results by a column of this table
*/
func (t *Table) AddOrderBy(field string, descending bool) {
	root := t.getRoot()
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	root.orderBy = append(root.orderBy, fmt.Sprintf(aliasedField+" %[3]v", t.Alias, field, direction))
}

func (t *Table) getRoot() *Table {
	if t.root != nil {
		return t.root
	}
	return t
}

/*
AppendJoin adds a join with the proper aliasing. Columns requested from the
joined table are selected too.

	links := New("catalogue_productcategory")
	links.AddWhere("product_id", []interface{}{1, 2})
	categories := links.AppendJoin("catalogue_category", "id", "category_id", "left")
	categories.AddColumns([]string{"id", "code", "name"})
*/
func (t *Table) AppendJoin(tbl, joinField, parentField, jType string) *Table {
	root := t.getRoot()

	alias := fmt.Sprintf("t%d", root.Counter)
	root.Counter++

	join := Join{
		Table: &Table{
			root:  root,
			Alias: alias,
			Name:  tbl,
		},
		Parent:      t,
		ParentField: parentField,
		JoinField:   joinField,
		Type:        jType,
	}

	t.Joins = append(t.Joins, join)

	return join.Table
}

/*
Columns gets the columns of this table including the proper alias
*/
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(t.columns))

	for _, col := range t.columns {
		cols = append(cols, fmt.Sprintf(aliasedCol, t.Alias, col))
	}

	return cols
}

// Build renders the ON clause of the join
func (j *Join) Build() string {
	return fmt.Sprintf(
		aliasedJoin,
		j.Table.Alias,
		j.Table.Name,
		fmt.Sprintf(aliasedField, j.Table.Alias, j.JoinField),
		fmt.Sprintf(aliasedField, j.Parent.Alias, j.ParentField),
	)
}

/*
FieldAliases returns a map of all columns on a table and that table's joins.
*/
func (t *Table) FieldAliases() map[string]FieldDescriptor {
	aliasMap := make(map[string]FieldDescriptor)
	for _, col := range t.columns {
		aliasMap[fmt.Sprintf(aliasedField, t.Alias, col)] = FieldDescriptor{
			Alias: t.Alias,
			Table: t.Name,
			Field: col,
		}
	}

	for _, join := range t.Joins {
		for alias, descriptor := range join.Table.FieldAliases() {
			aliasMap[alias] = descriptor
		}
	}

	return aliasMap
}

/*
ToSQL returns the SQL statement, as it currently stands.
*/
func (t *Table) ToSQL(dialect Dialect) (string, []interface{}, error) {
	return t.BuildSQL(dialect).ToSql()
}

/*
BuildSQL returns a squirrel SelectBuilder, which can be used to execute the query
or to just add more to the query
*/
func (t *Table) BuildSQL(dialect Dialect) sql.SelectBuilder {
	bld := sql.Select(t.Columns()...).
		PlaceholderFormat(dialect.Placeholder).
		From(fmt.Sprintf("%s AS %s", t.Name, t.Alias))

	bld = sqlizeWheres(bld, t)

	for _, join := range t.Joins {
		bld = sqlizeJoin(bld, join)
	}

	if len(t.orderBy) > 0 {
		bld = bld.OrderBy(t.orderBy...)
	}

	return bld
}

func sqlizeWheres(bld sql.SelectBuilder, t *Table) sql.SelectBuilder {
	for _, where := range t.Wheres {
		bld = bld.Where(sql.Eq{fmt.Sprintf(aliasedField, t.Alias, where.Field): where.Val})
	}
	return bld
}

func sqlizeJoin(bld sql.SelectBuilder, join Join) sql.SelectBuilder {

	bld = bld.Columns(join.Table.Columns()...)

	switch strings.ToLower(join.Type) {
	case "right":
		bld = bld.RightJoin(join.Build())
	case "left":
		bld = bld.LeftJoin(join.Build())
	default:
		bld = bld.Join(join.Build())
	}

	bld = sqlizeWheres(bld, join.Table)

	for _, join := range join.Table.Joins {
		bld = sqlizeJoin(bld, join)
	}

	return bld
}
