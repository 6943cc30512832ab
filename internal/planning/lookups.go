package planning

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/enrich"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"go.uber.org/zap"
)

// dimensionLookups returns the alias, UDA and attribute associations of dim.
// Attribute dimensions only carry aliases. Results are cached by dimension.
func (e *Extractor) dimensionLookups(ctx context.Context, dim Dimension) (*enrich.Lookups, error) {
	if l, ok := e.lookups.Get(dim.Name); ok {
		return l, nil
	}

	l := enrich.NewLookups()
	err := e.scan(ctx, aliasQuery(dim.Name), func(r rowsource.Row) {
		if id, ok := asInt64(r[1]); ok {
			l.AddAlias(asString(r[0]), id, asString(r[2]))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s aliases: %w", dim.Name, err)
	}

	if !dim.IsAttribute() {
		err = e.scan(ctx, udaQuery(dim.Name), func(r rowsource.Row) {
			if id, ok := asInt64(r[0]); ok {
				l.AddUDA(id, asString(r[1]))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s UDAs: %w", dim.Name, err)
		}
		err = e.scan(ctx, attributeQuery(dim.Name), func(r rowsource.Row) {
			if id, ok := asInt64(r[1]); ok {
				l.AddAttribute(asString(r[0]), id, asString(r[2]))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s attributes: %w", dim.Name, err)
		}
	}

	aliases, udas, attrs := l.Stats()
	e.logger.Debug("loaded dimension lookups",
		zap.String("dimension", dim.Name),
		zap.Int("aliases", aliases),
		zap.Int("udas", udas),
		zap.Int("attributes", attrs))
	e.lookups.Set(dim.Name, l)
	return l, nil
}

// scan streams the rows of q through fn.
func (e *Extractor) scan(ctx context.Context, q squirrel.Sqlizer, fn func(rowsource.Row)) error {
	rows, err := e.src.Query(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		fn(rows.Row())
	}
	return rows.Err()
}
