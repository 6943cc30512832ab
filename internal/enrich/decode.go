package enrich

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agardiner/epm-utils/internal/rowsource"
)

// ErrUnknownConsolOp is returned when a packed consolidation operator slot
// holds a value outside the operator table.
var ErrUnknownConsolOp = errors.New("unknown consolidation operator")

// Consolidation operators are packed 6 bits per plan type; each slot is read
// with a 7-bit mask.
const (
	consolOpWidth = 6
	consolOpMask  = 0x7F
)

var consolOps = [...]string{"+", "-", "*", "/", "%", "~", "Never"}

// ConsolOpError reports the offending slot of a packed operator field.
type ConsolOpError struct {
	Category int
	Value    int64
}

func (e *ConsolOpError) Error() string {
	return fmt.Sprintf("%s: value %d in category %d", ErrUnknownConsolOp, e.Value, e.Category)
}

func (e *ConsolOpError) Unwrap() error { return ErrUnknownConsolOp }

// DecodeConsolOp expands a packed consolidation operator field into one
// operator per category.
func DecodeConsolOp(packed int64, categories int) ([]string, error) {
	out := make([]string, categories)
	for i := range out {
		v := (packed >> (consolOpWidth * i)) & consolOpMask
		if int(v) >= len(consolOps) {
			return nil, &ConsolOpError{Category: i, Value: v}
		}
		out[i] = consolOps[v]
	}
	return out, nil
}

// DecodeUsedIn expands a bitmask into "True"/"False" per category; bit i
// (least significant first) marks category i.
func DecodeUsedIn(mask int64, categories int) []string {
	out := make([]string, categories)
	for i := range out {
		if mask&(1<<i) != 0 {
			out[i] = "True"
		} else {
			out[i] = "False"
		}
	}
	return out
}

// EscapeFormula prefixes text that a spreadsheet would evaluate as a formula.
func EscapeFormula(s string) string {
	if strings.HasPrefix(s, "=") {
		return "'" + s
	}
	return s
}

// PathSeparator joins hierarchy path segments.
const PathSeparator = "|"

// ExpandPath replaces the row's last cell, a "|"-joined hierarchy path, with
// one cell per segment.
func ExpandPath(row rowsource.Row) (rowsource.Row, error) {
	if len(row) == 0 {
		return row, nil
	}
	last := row[len(row)-1]
	row = row[:len(row)-1]
	if last == nil {
		return row, nil
	}
	s, ok := last.(string)
	if !ok {
		return nil, fmt.Errorf("path cell holds %T, want string", last)
	}
	for _, seg := range strings.Split(s, PathSeparator) {
		row = append(row, seg)
	}
	return row, nil
}

// toInt64 reads an integer cell.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}
