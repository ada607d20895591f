package oscarodin

import (
	"fmt"
)

// ModelNotFoundError is returned when functions that expect to return an
// existing model cannot find one
const ModelNotFoundError Error = "Model Not Found"

// ErrNoPrimaryKey is returned for models without a primary_key tag
const ErrNoPrimaryKey Error = "Model has no primary key"

// ErrNoTableName is returned for models without a tablename tag
const ErrNoTableName Error = "No table name specified in struct metadata"

// ErrNoConnection is returned when the ORM has no database to run against
const ErrNoConnection Error = "No database connection"

// ErrTransactionOpen is returned by Begin when a transaction is already open
const ErrTransactionOpen Error = "Transaction already started"

// ErrNoTransaction is returned by Commit and Rollback without an open transaction
const ErrNoTransaction Error = "No transaction started"

// ErrMixedModels is returned when a bulk operation receives records of more than one model
const ErrMixedModels Error = "Bulk operations need records of a single model"

// Error is a type of error that oscarodin will return
type Error string

func (err Error) Error() string {
	return string(err)
}

// QueryError holds additional information about an SQL query failure
type QueryError struct {
	Err   error
	Query string
}

/*
NewQueryError returns a new QueryError object, populated with
extra information about which query failed
*/
func NewQueryError(err error, query string) *QueryError {
	return &QueryError{
		Err:   err,
		Query: query,
	}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: Query: %s", e.Err, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
