// Package sink holds the output targets extracted rows are written to. The
// set of variants is closed: discard, in-memory records, delimited text and
// spreadsheet sheet.
package sink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/spf13/afero"
)

var (
	// ErrUnknownKind is returned by New for an unrecognised target kind.
	ErrUnknownKind = errors.New("unknown sink kind")
	// ErrNoByteOrderMark is returned when a BOM is requested for an
	// encoding that cannot represent one.
	ErrNoByteOrderMark = errors.New("encoding has no byte-order mark")
)

// Sink receives the rows of one extract call.
type Sink interface {
	// WriteHeader writes the display header. Called at most once, before any row.
	WriteHeader(header []string) error
	WriteRow(row rowsource.Row) error
	// RowCount is the number of data rows written through this sink.
	RowCount() int
	Close() error
}

// Kind selects a sink variant.
type Kind int

const (
	KindDiscard Kind = iota
	KindRecords
	KindText
	KindSheet
)

func (k Kind) String() string {
	switch k {
	case KindDiscard:
		return "none"
	case KindRecords:
		return "records"
	case KindText:
		return "text"
	case KindSheet:
		return "sheet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return KindDiscard, nil
	case "records":
		return KindRecords, nil
	case "text":
		return KindText, nil
	case "sheet":
		return KindSheet, nil
	}
	return KindDiscard, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Target describes where one extract call writes. The zero value discards.
type Target struct {
	Kind    Kind
	Path    string
	Records *Records
	Sheet   *Sheet
}

// Discard returns a target that only counts rows.
func Discard() Target { return Target{Kind: KindDiscard} }

// ToFile returns a delimited text target.
func ToFile(path string) Target { return Target{Kind: KindText, Path: path} }

// ToRecords returns an in-memory target appending to r.
func ToRecords(r *Records) Target { return Target{Kind: KindRecords, Records: r} }

// ToSheet returns a spreadsheet target appending to s.
func ToSheet(s *Sheet) Target { return Target{Kind: KindSheet, Sheet: s} }

// IsText reports whether the target is a plain text file.
func (t Target) IsText() bool { return t.Kind == KindText }

// New opens the sink variant selected by t. fs is only used by text targets.
func New(fs afero.Fs, t Target, opts TextOptions) (Sink, error) {
	switch t.Kind {
	case KindDiscard:
		return &discard{}, nil
	case KindRecords:
		if t.Records == nil {
			return nil, errors.New("records target has no collector")
		}
		return &recordsSink{records: t.Records}, nil
	case KindText:
		if t.Path == "" {
			return nil, errors.New("text target has no path")
		}
		return openText(fs, t.Path, opts)
	case KindSheet:
		if t.Sheet == nil {
			return nil, errors.New("sheet target has no sheet")
		}
		return &sheetSink{sheet: t.Sheet}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, t.Kind)
}

type discard struct {
	rows int
}

func (d *discard) WriteHeader([]string) error { return nil }

func (d *discard) WriteRow(rowsource.Row) error {
	d.rows++
	return nil
}

func (d *discard) RowCount() int { return d.rows }
func (d *discard) Close() error  { return nil }
