package enrich

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agardiner/epm-utils/internal/rowsource"
)

// UDAPlaceholder marks the cell replaced by a member's comma-joined UDAs.
const UDAPlaceholder = "UDA_Placeholder"

// Source fields with special handling. The first field of a member row is
// always the member identifier and is dropped from the output.
const (
	FieldConsolOp = "CONSOL_OP"
	FieldUsedIn   = "USED_IN"
	FieldUDA      = "UDA"
	FieldFormula  = "FORMULA"
)

// aliasColumn is the position alias columns are inserted at, counted after
// the member identifier has been removed.
const aliasColumn = 2

type stepKind int

const (
	stepCopy stepKind = iota
	stepAliases
	stepConsolOp
	stepUsedIn
	stepUDA
	stepFormula
	stepAttributes
)

type step struct {
	kind stepKind
	src  int
}

// Dimension enriches the member rows of one dimension extract. SetHeaders
// must run before Enrich: it fixes the column layout used for every row.
type Dimension struct {
	lookups        *Lookups
	planTypes      []string
	escapeFormulas bool

	steps     []step
	width     int
	attrDims  []string
	aliasTbls []string
}

// NewDimension creates an enricher. escapeFormulas should be set for every
// destination other than a plain text file.
func NewDimension(lookups *Lookups, planTypes []string, escapeFormulas bool) *Dimension {
	return &Dimension{lookups: lookups, planTypes: planTypes, escapeFormulas: escapeFormulas}
}

// SetHeaders drops the member identifier, inserts one "Alias: <table>"
// column per alias table at position 2, expands CONSOL_OP and USED_IN into
// one column per plan type, and appends one column per attribute dimension.
func (d *Dimension) SetHeaders(fields []string) []string {
	d.steps = d.steps[:0]
	d.aliasTbls = d.lookups.AliasTables()
	d.attrDims = d.lookups.AttributeDimensions()
	var out []string

	addAliases := func() {
		d.steps = append(d.steps, step{kind: stepAliases})
		for _, tbl := range d.aliasTbls {
			out = append(out, "Alias: "+tbl)
		}
	}

	aliased := false
	for i, f := range fields {
		if i == 0 {
			continue
		}
		if len(out) == aliasColumn && !aliased {
			addAliases()
			aliased = true
		}
		switch strings.ToUpper(f) {
		case FieldConsolOp:
			d.steps = append(d.steps, step{kind: stepConsolOp, src: i})
			for _, pt := range d.planTypes {
				out = append(out, fmt.Sprintf("Aggregation (%s)", pt))
			}
		case FieldUsedIn:
			d.steps = append(d.steps, step{kind: stepUsedIn, src: i})
			for _, pt := range d.planTypes {
				out = append(out, fmt.Sprintf("Plan Type (%s)", pt))
			}
		case FieldUDA:
			d.steps = append(d.steps, step{kind: stepUDA, src: i})
			out = append(out, f)
		case FieldFormula:
			d.steps = append(d.steps, step{kind: stepFormula, src: i})
			out = append(out, f)
		default:
			d.steps = append(d.steps, step{kind: stepCopy, src: i})
			out = append(out, f)
		}
	}
	if !aliased {
		addAliases()
	}

	d.steps = append(d.steps, step{kind: stepAttributes})
	out = append(out, d.attrDims...)
	d.width = len(out)
	return out
}

// Enrich rewrites one member row to the layout fixed by SetHeaders.
func (d *Dimension) Enrich(row rowsource.Row) (rowsource.Row, error) {
	if len(d.steps) == 0 {
		return nil, errors.New("dimension enricher used before headers were set")
	}
	if len(row) == 0 {
		return nil, errors.New("empty member row")
	}
	id, ok := toInt64(row[0])
	if !ok {
		return nil, fmt.Errorf("member id %v is not an integer", row[0])
	}

	out := make(rowsource.Row, 0, d.width)
	for _, s := range d.steps {
		switch s.kind {
		case stepCopy:
			out = append(out, cell(row, s.src))
		case stepAliases:
			for _, tbl := range d.aliasTbls {
				if a, ok := d.lookups.Alias(tbl, id); ok {
					out = append(out, a)
				} else {
					out = append(out, nil)
				}
			}
		case stepConsolOp:
			packed, _ := toInt64(cell(row, s.src))
			ops, err := DecodeConsolOp(packed, len(d.planTypes))
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", id, err)
			}
			for _, op := range ops {
				out = append(out, op)
			}
		case stepUsedIn:
			mask, ok := toInt64(cell(row, s.src))
			for _, v := range DecodeUsedIn(mask, len(d.planTypes)) {
				if ok {
					out = append(out, v)
				} else {
					out = append(out, nil)
				}
			}
		case stepUDA:
			v := cell(row, s.src)
			if v == UDAPlaceholder {
				v = strings.Join(d.lookups.UDAs(id), ",")
			}
			out = append(out, v)
		case stepFormula:
			v := cell(row, s.src)
			if f, ok := v.(string); ok && d.escapeFormulas {
				v = EscapeFormula(f)
			}
			out = append(out, v)
		case stepAttributes:
			for _, dim := range d.attrDims {
				a, _ := d.lookups.Attribute(dim, id)
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func cell(row rowsource.Row, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}
