/*
Package dbchange records the rows an import inserted and updated
*/
package dbchange

import (
	"github.com/elliotchance/orderedmap/v2"
	uuid "github.com/satori/go.uuid"
)

// Type is an enum for the type of change being made. Insert or Update
type Type int

const (
	// Insert Type
	Insert Type = iota
	// Update Type
	Update
)

func (t Type) String() string {
	if t == Insert {
		return "insert"
	}
	return "update"
}

// Change structure
type Change struct {
	Table      string
	PrimaryKey interface{}
	Record     interface{}
	Type       Type
}

// ChangeSet structure. RunID identifies the import in logs.
type ChangeSet struct {
	RunID   uuid.UUID
	Inserts []Change
	Updates []Change
	tables  *orderedmap.OrderedMap[string, *TableSummary]
}

// TableSummary counts the changes made to one table
type TableSummary struct {
	Table    string
	Inserted int
	Updated  int
}

// New returns an empty change set with a fresh run id
func New() *ChangeSet {
	return &ChangeSet{
		RunID:  uuid.NewV4(),
		tables: orderedmap.NewOrderedMap[string, *TableSummary](),
	}
}

// Add records a change to a row of table
func (cs *ChangeSet) Add(changeType Type, table string, primaryKey interface{}, record interface{}) {
	change := Change{
		Table:      table,
		PrimaryKey: primaryKey,
		Record:     record,
		Type:       changeType,
	}

	summary, ok := cs.tables.Get(table)
	if !ok {
		summary = &TableSummary{Table: table}
		cs.tables.Set(table, summary)
	}

	switch changeType {
	case Insert:
		cs.Inserts = append(cs.Inserts, change)
		summary.Inserted++
	case Update:
		cs.Updates = append(cs.Updates, change)
		summary.Updated++
	}
}

// Summary returns the change counts per table, in the order tables were
// first changed
func (cs *ChangeSet) Summary() []TableSummary {
	summaries := make([]TableSummary, 0, cs.tables.Len())
	for el := cs.tables.Front(); el != nil; el = el.Next() {
		summaries = append(summaries, *el.Value)
	}
	return summaries
}

// Len returns the number of changes recorded
func (cs *ChangeSet) Len() int {
	return len(cs.Inserts) + len(cs.Updates)
}
