package rowsource

// sliceRows serves rows that are already in memory.
type sliceRows struct {
	header Header
	rows   []Row
	pos    int
}

// NewSliceRows returns a Rows iterator over an in-memory result set.
func NewSliceRows(header Header, rows []Row) Rows {
	return &sliceRows{header: header, rows: rows, pos: -1}
}

func (s *sliceRows) Header() Header { return s.header }

func (s *sliceRows) Next() bool {
	if s.pos+1 >= len(s.rows) {
		s.pos = len(s.rows)
		return false
	}
	s.pos++
	return true
}

func (s *sliceRows) Row() Row {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return nil
	}
	return s.rows[s.pos].Clone()
}

func (s *sliceRows) Err() error   { return nil }
func (s *sliceRows) Close() error { return nil }
