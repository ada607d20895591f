package query

import (
	"fmt"

	sql "github.com/Masterminds/squirrel"
)

// Dialect holds what differs between the supported databases
type Dialect struct {
	Name        string
	Placeholder sql.PlaceholderFormat
	// Returning is set when an INSERT can return the generated keys
	Returning bool
	// MatchedRows is set when an UPDATE reports the rows it matched rather
	// than the rows it changed
	MatchedRows bool
}

// Postgres uses $n placeholders and INSERT ... RETURNING
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: sql.Dollar,
	Returning:   true,
	MatchedRows: true,
}

// MySQL uses ? placeholders and LAST_INSERT_ID
var MySQL = Dialect{
	Name:        "mysql",
	Placeholder: sql.Question,
}

// DialectFor returns the dialect of a database/sql driver name
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "postgres", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driverName)
}
