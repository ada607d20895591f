/*
Package queryparts holds the pieces of a filter request that callers build
before handing it to the ORM
*/
package queryparts

/*
OrderByRequest holds information about a request to order by a field
*/
type OrderByRequest struct {
	Field      string
	Descending bool
}

// FieldFilter defines an arbitrary filter on a FilterRequest. FieldName may be
// a struct field or a column. A slice FilterValue matches any of its values.
type FieldFilter struct {
	FieldName   string
	FilterValue interface{}
}
