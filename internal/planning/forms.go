package planning

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/agardiner/epm-utils/internal/enrich"
	"github.com/agardiner/epm-utils/internal/extract"
	"github.com/agardiner/epm-utils/internal/manifest"
	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
)

// ObjectFunc receives each migratable object an extract produces.
type ObjectFunc func(obj manifest.Object) error

// Positions of the form extract columns.
const (
	formNameCol = iota
	formTypeCol
	formFolderCol
	formPlanTypeCol
)

// layoutStyles name the bits of a form layout STYLE, least significant first.
var layoutStyles = []string{
	"START_EXPANDED",
	"DISPLAY_NAME",
	"DISPLAY_ALIAS",
	"BIT4",
	"HIDE_DIMENSION",
	"DISPLAY_FORMULA",
	"SHOW_CONSOL_OPERATORS",
}

// ExtractForms writes the simple and composite forms whose name matches
// pattern, sorted by name, with folder ids resolved to paths under the form
// root folder. fn, when set, receives the object of every form written.
func (e *Extractor) ExtractForms(ctx context.Context, target sink.Target, pattern string, opts extract.Options, fn ObjectFunc) (int, error) {
	return e.run("forms", func() (int, error) {
		folders, err := e.formFolders(ctx)
		if err != nil {
			return 0, err
		}
		header, simple, err := e.collect(ctx, simpleFormsQuery(pattern))
		if err != nil {
			return 0, err
		}
		_, composite, err := e.collect(ctx, compositeFormsQuery(pattern))
		if err != nil {
			return 0, err
		}

		all := append(simple, composite...)
		sort.SliceStable(all, func(i, j int) bool {
			return asString(all[i][formNameCol]) < asString(all[j][formNameCol])
		})

		hooks := extract.Hooks{
			Enrich: func(row rowsource.Row) (rowsource.Row, error) {
				id, _ := asInt64(row[formFolderCol])
				row[formFolderCol] = folders.Path(id)
				return row, nil
			},
		}
		if fn != nil {
			hooks.OnRow = func(row rowsource.Row) error {
				return fn(FormObject(row))
			}
		}
		return e.dispatcher.Run(ctx, rowsource.NewSliceRows(header, all), target, opts, hooks)
	})
}

// FormObject identifies the form described by a form extract row.
func FormObject(row rowsource.Row) manifest.Object {
	obj := manifest.Object{
		Kind:   manifest.KindForm,
		Name:   asString(row[formNameCol]),
		Folder: asString(row[formFolderCol]),
		Scope:  asString(row[formPlanTypeCol]),
	}
	if asString(row[formTypeCol]) == "Composite" {
		obj.Kind = manifest.KindCompositeForm
		obj.Scope = ""
	}
	return obj
}

// ExtractCompositeForms writes the panes and embedded forms of the composite
// forms matching pattern.
func (e *Extractor) ExtractCompositeForms(ctx context.Context, target sink.Target, pattern string, opts extract.Options) (int, error) {
	return e.run("composite form", func() (int, error) {
		return e.execute(ctx, compositeLayoutQuery(pattern), target, opts, extract.Hooks{})
	})
}

// ExtractFormLayout writes the axis layout of the forms matching pattern
// with the packed display style expanded into one flag column per bit.
func (e *Extractor) ExtractFormLayout(ctx context.Context, target sink.Target, pattern string, opts extract.Options) (int, error) {
	return e.run("form layout", func() (int, error) {
		styleCol := -1
		opts.SetHeaders = func(fields []string) []string {
			out := make([]string, 0, len(fields)+len(layoutStyles))
			for i, f := range fields {
				if strings.EqualFold(f, "STYLE") {
					styleCol = i
					out = append(out, layoutStyles...)
					continue
				}
				out = append(out, f)
			}
			return out
		}
		enrichStyle := func(row rowsource.Row) (rowsource.Row, error) {
			if styleCol < 0 || styleCol >= len(row) {
				return row, nil
			}
			mask, _ := asInt64(row[styleCol])
			out := make(rowsource.Row, 0, len(row)+len(layoutStyles))
			out = append(out, row[:styleCol]...)
			for _, v := range enrich.DecodeUsedIn(mask, len(layoutStyles)) {
				out = append(out, v)
			}
			return append(out, row[styleCol+1:]...), nil
		}
		return e.execute(ctx, formLayoutQuery(pattern), target, opts, extract.Hooks{Enrich: enrichStyle})
	})
}

// ExtractFormMembers writes the member selections on each axis of the
// forms matching pattern.
func (e *Extractor) ExtractFormMembers(ctx context.Context, target sink.Target, pattern string, opts extract.Options) (int, error) {
	return e.run("form member", func() (int, error) {
		return e.execute(ctx, formMembersQuery(pattern), target, opts, extract.Hooks{})
	})
}

// ExtractFormCalcs writes the business rules attached to the forms matching
// pattern and when they run.
func (e *Extractor) ExtractFormCalcs(ctx context.Context, target sink.Target, pattern string, opts extract.Options) (int, error) {
	return e.run("form calc", func() (int, error) {
		return e.execute(ctx, formCalcsQuery(pattern), target, opts, extract.Hooks{})
	})
}

// ExtractFormMenus writes the right-click menus attached to the forms
// matching pattern.
func (e *Extractor) ExtractFormMenus(ctx context.Context, target sink.Target, pattern string, opts extract.Options) (int, error) {
	return e.run("form menu", func() (int, error) {
		return e.execute(ctx, formMenusQuery(pattern), target, opts, extract.Hooks{})
	})
}

// FormUsage reports the task lists and composite forms that reference the
// forms matching pattern. Nothing is written.
func (e *Extractor) FormUsage(ctx context.Context, pattern string, fn ObjectFunc) (int, error) {
	folders, err := e.formFolders(ctx)
	if err != nil {
		return 0, err
	}
	onRow := func(row rowsource.Row) error {
		if tl := asString(row[0]); tl != "" {
			return fn(manifest.Object{Kind: manifest.KindTaskList, Name: tl})
		}
		id, _ := asInt64(row[2])
		return fn(manifest.Object{Kind: manifest.KindCompositeForm, Name: asString(row[1]), Folder: folders.Path(id)})
	}

	total := 0
	for _, q := range []squirrel.Sqlizer{formTaskUsageQuery(pattern), formCompositeUsageQuery(pattern)} {
		n, err := e.execute(ctx, q, sink.Discard(), extract.DefaultOptions(), extract.Hooks{OnRow: onRow})
		total += n
		if err != nil {
			return total, fmt.Errorf("failed to query form usage: %w", err)
		}
	}
	return total, nil
}

// collect reads a whole result set.
func (e *Extractor) collect(ctx context.Context, q squirrel.Sqlizer) (rowsource.Header, []rowsource.Row, error) {
	rows, err := e.src.Query(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	header := rows.Header().Clone()
	all, err := rowsource.Collect(rows)
	return header, all, err
}
