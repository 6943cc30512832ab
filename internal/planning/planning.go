// Package planning extracts metadata from a Hyperion Planning application
// repository: dimension outlines, forms, task lists, smart lists, menus,
// user variables and security. Queries are built with squirrel against the
// HSP_* repository tables and written through the extract dispatcher.
package planning

import (
	"errors"
	"fmt"
)

// ErrUnknownDimension is returned when a dimension name is not part of the
// application.
var ErrUnknownDimension = errors.New("unknown dimension")

// Dimension is one dimension of the application outline.
type Dimension struct {
	Name string
	Type string
}

// IsAttribute reports whether d is an attribute dimension.
func (d Dimension) IsAttribute() bool { return d.Type == attributeDimensionType }

func unknownDimension(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownDimension, name)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
