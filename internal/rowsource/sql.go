package rowsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// SQL is a Source backed by a database/sql connection pool.
type SQL struct {
	db          *sql.DB
	placeholder squirrel.PlaceholderFormat
}

// NewSQL wraps db. Queries are built with '?' placeholders and rewritten with
// format before execution.
func NewSQL(db *sql.DB, format squirrel.PlaceholderFormat) *SQL {
	if format == nil {
		format = squirrel.Question
	}
	return &SQL{db: db, placeholder: format}
}

// DB exposes the underlying pool.
func (s *SQL) DB() *sql.DB { return s.db }

// Query runs q and returns an iterator over its rows.
func (s *SQL) Query(ctx context.Context, q squirrel.Sqlizer) (Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query, err = s.placeholder.ReplacePlaceholders(query)
	if err != nil {
		return nil, fmt.Errorf("format placeholders: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return &sqlRows{rows: rows, header: Header(cols)}, nil
}

type sqlRows struct {
	rows   *sql.Rows
	header Header
	cur    Row
	err    error
}

func (r *sqlRows) Header() Header { return r.header }

func (r *sqlRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	values := make([]any, len(r.header))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = fmt.Errorf("scan row: %w", err)
		return false
	}
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = normalize(v)
	}
	r.cur = row
	return true
}

func (r *sqlRows) Row() Row { return r.cur }

func (r *sqlRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *sqlRows) Close() error { return r.rows.Close() }

// normalize maps driver values onto the cell types the pipeline understands.
func normalize(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
