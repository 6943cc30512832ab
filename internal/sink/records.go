package sink

import "github.com/agardiner/epm-utils/internal/rowsource"

// Records is an ordered in-memory collector. It outlives individual extract
// calls so several subtrees can be appended to the same collector.
type Records struct {
	rows []rowsource.Row
}

// NewRecords returns an empty collector.
func NewRecords() *Records { return &Records{} }

// Rows returns everything collected so far, header pseudo-rows included.
func (r *Records) Rows() []rowsource.Row { return r.rows }

// Len returns the number of collected rows, header pseudo-rows included.
func (r *Records) Len() int { return len(r.rows) }

type recordsSink struct {
	records *Records
	rows    int
}

func (s *recordsSink) WriteHeader(header []string) error {
	row := make(rowsource.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	s.records.rows = append(s.records.rows, row)
	return nil
}

func (s *recordsSink) WriteRow(row rowsource.Row) error {
	s.records.rows = append(s.records.rows, row)
	s.rows++
	return nil
}

func (s *recordsSink) RowCount() int { return s.rows }
func (s *recordsSink) Close() error  { return nil }
