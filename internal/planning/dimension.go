package planning

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/enrich"
	"github.com/agardiner/epm-utils/internal/extract"
	"github.com/agardiner/epm-utils/internal/hierarchy"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
)

// OutlineEncoding is the default encoding of outline load files.
const OutlineEncoding = "utf-8|bom"

// outlineHeader keeps the dimension column and generated headers such as
// "Alias: Default" or "Aggregation (Plan1)" verbatim and title-cases the
// rest.
func outlineHeader(dim string) extract.HeaderMapper {
	keep := extract.KeepHeader(dim)
	return func(field string) string {
		if strings.ContainsAny(field, ":(") {
			return field
		}
		return keep(field)
	}
}

// memberFileOptions applies the defaults shared by the member extracts:
// BOM-marked UTF-8 unless an encoding is set, and comma separated single
// line records for text targets.
func memberFileOptions(opts extract.Options, target sink.Target) extract.Options {
	if opts.Encoding == "" {
		opts.Encoding = OutlineEncoding
	}
	if target.IsText() {
		opts.FieldSeparator = ","
		opts.StripLineBreaks = true
	}
	return opts
}

// outlineOptions applies the outline load format to opts.
func outlineOptions(opts extract.Options, dim string, target sink.Target) extract.Options {
	opts.HeaderMap = outlineHeader(dim)
	return memberFileOptions(opts, target)
}

// ExtractDimension writes the members under topMembers (the whole dimension
// when empty) in outline load format: one row per member in hierarchy order
// with aliases, plan type usage, aggregation operators, UDAs and attribute
// values spliced in. Attribute dimensions omit the top member itself.
func (e *Extractor) ExtractDimension(ctx context.Context, target sink.Target, dimName string, topMembers []string, opts extract.Options) (int, error) {
	dim, err := e.dimension(ctx, dimName)
	if err != nil {
		return 0, err
	}
	return e.run(dim.Name+" dimension", func() (int, error) {
		props, header, err := e.memberProperties(ctx, dim)
		if err != nil {
			return 0, err
		}
		lookups, err := e.dimensionLookups(ctx, dim)
		if err != nil {
			return 0, err
		}
		var planTypes []string
		if !dim.IsAttribute() {
			if planTypes, err = e.PlanTypes(ctx); err != nil {
				return 0, err
			}
		}
		roots, err := e.members.Resolve(ctx, dim.Name, topMembers)
		if err != nil {
			return 0, err
		}

		enricher := enrich.NewDimension(lookups, planTypes, !target.IsText())
		opts = outlineOptions(opts, dim.Name, target)
		opts.SetHeaders = enricher.SetHeaders

		project := func(v hierarchy.Visit) (rowsource.Row, bool, error) {
			if dim.IsAttribute() && v.Depth == 0 {
				return nil, false, nil
			}
			row, ok := props[v.Node.ID]
			return row, ok, nil
		}
		return e.runTrees(ctx, e.members, dim.Name, roots, header, project, target, opts,
			extract.Hooks{Enrich: enricher.Enrich})
	})
}

// memberProperties loads the property row of every member of dim keyed by
// member id. The member name column is headed by the dimension name.
func (e *Extractor) memberProperties(ctx context.Context, dim Dimension) (map[int64]rowsource.Row, rowsource.Header, error) {
	var q squirrel.Sqlizer = memberPropertiesQuery(dim.Name)
	if dim.IsAttribute() {
		q = attributeMemberPropertiesQuery(dim.Name)
	}
	rows, err := e.src.Query(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s members: %w", dim.Name, err)
	}
	header := rows.Header().Clone()
	all, err := rowsource.Collect(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s members: %w", dim.Name, err)
	}

	props := make(map[int64]rowsource.Row, len(all))
	for _, r := range all {
		if id, ok := asInt64(r[0]); ok {
			props[id] = r
		}
	}
	if len(header) > 1 {
		header[1] = dim.Name
	}
	return props, header, nil
}

// ExtractDimensionLevels writes the members under topMembers as an indented
// tree: name, default alias, generation and one column per path segment.
// Text targets get the same encoding and separator defaults as the outline.
func (e *Extractor) ExtractDimensionLevels(ctx context.Context, target sink.Target, dimName string, topMembers []string, opts extract.Options) (int, error) {
	dim, err := e.dimension(ctx, dimName)
	if err != nil {
		return 0, err
	}
	return e.run(dim.Name+" levels", func() (int, error) {
		roots, err := e.members.Resolve(ctx, dim.Name, topMembers)
		if err != nil {
			return 0, err
		}
		opts = memberFileOptions(opts, target)
		opts.HeaderMap = extract.TitleHeader
		return e.runTrees(ctx, e.members, dim.Name, roots, hierarchy.LevelHeader, hierarchy.LevelRow, target, opts,
			extract.Hooks{Enrich: enrich.ExpandPath})
	})
}
