package repository

import (
	"maps"
	"slices"
)

// Filterable document keys.
const (
	CategoryField QueryField = "category"
	StudentsField QueryField = "students"
	ProductField  QueryField = "product"
)

// QueryField names a top-level document key.
type QueryField string

// IsArray reports whether the field holds a list, in which case a filter
// value matches when it is one of the elements.
func (f QueryField) IsArray() bool {
	return f == StudentsField
}

// Query filters a List call by exact field matches.
type Query struct {
	Values map[QueryField]string

	// Limit caps the result size; zero means unbounded.
	Limit int
}

func NewQuery() *Query {
	return &Query{Values: map[QueryField]string{}}
}

func (q *Query) With(field QueryField, val string) *Query {
	q.Values[field] = val
	return q
}

func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// Fields returns the filtered fields in a stable order so generated
// statements do not depend on map iteration.
func (q Query) Fields() []QueryField {
	return slices.Sorted(maps.Keys(q.Values))
}
