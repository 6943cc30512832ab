// Package extract runs queries into sinks: it applies header mutation and
// mapping, per-row enrichment and callbacks, and keeps the row count.
package extract

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// RowFunc rewrites a row before it is written, e.g. to splice in looked-up
// columns.
type RowFunc func(row rowsource.Row) (rowsource.Row, error)

// RowCallback observes each enriched row. It receives a copy, so it cannot
// change what is written.
type RowCallback func(row rowsource.Row) error

// Hooks are the per-call extension points.
type Hooks struct {
	Enrich RowFunc
	OnRow  RowCallback
}

// Dispatcher is the single entry point for writing a result set to a sink.
type Dispatcher struct {
	source rowsource.Source
	fs     afero.Fs
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher reading from source and writing text
// files to fs.
func NewDispatcher(source rowsource.Source, fs afero.Fs, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{source: source, fs: fs, logger: logger}
}

// Execute runs q and writes every row to target, returning the number of
// data rows written.
func (d *Dispatcher) Execute(ctx context.Context, q squirrel.Sqlizer, target sink.Target, opts Options, hooks Hooks) (int, error) {
	if len(opts.Args) > 0 {
		q = withArgs{q, opts.Args}
	}
	rows, err := d.source.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	return d.Run(ctx, rows, target, opts, hooks)
}

// Run writes an already open result set to target. The caller keeps
// ownership of rows.
//
// SetHeaders is invoked even when no header is written so that stateful
// mutators can record column positions.
func (d *Dispatcher) Run(ctx context.Context, rows rowsource.Rows, target sink.Target, opts Options, hooks Hooks) (n int, err error) {
	opts = opts.normalized()

	s, err := sink.New(d.fs, target, opts.textOptions())
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fields := []string(rows.Header().Clone())
	if opts.SetHeaders != nil {
		fields = opts.SetHeaders(fields)
	}
	if opts.IncludeHeaders {
		header := make([]string, len(fields))
		for i, f := range fields {
			header[i] = opts.HeaderMap(f)
		}
		if err := s.WriteHeader(header); err != nil {
			return 0, err
		}
	}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return s.RowCount(), err
		}
		row := rows.Row()
		if hooks.Enrich != nil {
			if row, err = hooks.Enrich(row); err != nil {
				return s.RowCount(), err
			}
		}
		if hooks.OnRow != nil {
			if err := hooks.OnRow(row.Clone()); err != nil {
				return s.RowCount(), err
			}
		}
		if err := s.WriteRow(row); err != nil {
			return s.RowCount(), err
		}
	}
	if err := rows.Err(); err != nil {
		return s.RowCount(), fmt.Errorf("read rows: %w", err)
	}

	d.logger.Debug("extract written",
		zap.Stringer("target", target.Kind),
		zap.String("path", target.Path),
		zap.Int("rows", s.RowCount()))
	return s.RowCount(), nil
}

// withArgs appends bind parameters to a built query.
type withArgs struct {
	q    squirrel.Sqlizer
	args []any
}

func (w withArgs) ToSql() (string, []any, error) {
	sql, args, err := w.q.ToSql()
	if err != nil {
		return "", nil, err
	}
	return sql, append(args, w.args...), nil
}
