// Package rowsource defines the row-producing collaborator consumed by the
// extraction pipeline: named-field rows pulled one at a time from a query.
package rowsource

import (
	"context"

	"github.com/Masterminds/squirrel"
)

// Header is the ordered list of source field names of a result set.
type Header []string

// Row is one record of a result set. Cells hold string, int64, float64,
// bool, time.Time or nil.
type Row []any

// Clone returns a copy of the row that shares no backing array.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Clone returns a copy of the header.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	copy(out, h)
	return out
}

// Index returns the position of the named field, or -1.
func (h Header) Index(name string) int {
	for i, f := range h {
		if f == name {
			return i
		}
	}
	return -1
}

// Rows is a finite, single-pass iterator over a result set. Usage follows
// database/sql: call Next until it returns false, then check Err.
type Rows interface {
	Header() Header
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// Source executes queries and yields their rows in result order.
type Source interface {
	Query(ctx context.Context, q squirrel.Sqlizer) (Rows, error)
}

// Count drains rows and returns how many were produced.
func Count(rows Rows) (int, error) {
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

// Collect drains rows into memory. Intended for small lookup result sets.
func Collect(rows Rows) ([]Row, error) {
	defer rows.Close()
	var out []Row
	for rows.Next() {
		out = append(out, rows.Row())
	}
	return out, rows.Err()
}
