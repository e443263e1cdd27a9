// Package index defines the read-only lookup service the linker queries.
//
// An Index answers exact-match point lookups: every document whose field
// holds exactly the given value, in the index's natural order, capped at
// maxHits. Backends live in the memory, dir and pgx subpackages.
package index

import (
	"context"
	"errors"
)

// Conventional names of the three indexes a linker needs.
const (
	URIIndex  = "uriindex"
	TypeIndex = "typeindex"
	PathIndex = "pathindex"
)

// Field names used by the linker.
const (
	FieldLabel = "labelex"
	FieldURI   = "uri"
	FieldType  = "type"
	FieldLevel = "level"
)

// ErrIndexUnavailable marks a backend that could not be opened or read.
var ErrIndexUnavailable = errors.New("index unavailable")

// Index is an exact-match key to document lookup service.
type Index interface {
	Search(ctx context.Context, field, value string, maxHits int) ([]Document, error)
}

// Document maps a field name to its stored values. Single-valued fields
// hold a one-element slice.
type Document map[string][]string

// Get returns the first value of field, or "" when absent.
func (d Document) Get(field string) string {
	vals := d[field]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Values returns every value of field in stored order.
func (d Document) Values(field string) []string {
	return d[field]
}

// Has reports whether field carries at least one value.
func (d Document) Has(field string) bool {
	return len(d[field]) > 0
}

// Set is the three indexes a linker is built from.
type Set struct {
	URI  Index
	Type Index
	Path Index
}
