package enrich

// Test Plan for Row Enrichment:
// - DecodeUsedIn expands 0b101 over 3 plan types to True, False, True
// - DecodeConsolOp expands [0, 2, 6] packed in 6-bit slots to +, *, Never
// - DecodeConsolOp rejects values outside the operator table with ErrUnknownConsolOp
// - EscapeFormula only touches text starting with '='
// - ExpandPath splits the trailing path cell into segments
// - Lookups keep alias tables in first-seen order and attribute dimensions sorted
// - Dimension.SetHeaders drops the id, inserts alias columns at 2, expands packed fields, appends attributes
// - Dimension.Enrich produces rows matching the header width with looked-up values
// - Dimension.Enrich replaces the UDA placeholder, empty when no UDAs
// - Dimension.Enrich escapes formulas only for non-text destinations
// - Dimension.Enrich surfaces a member-qualified error for a bad operator
// - Dimension.Enrich before SetHeaders fails

import (
	"testing"

	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUsedIn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"True", "False", "True"}, DecodeUsedIn(0b101, 3))
	assert.Equal(t, []string{"False", "False"}, DecodeUsedIn(0, 2))
	assert.Empty(t, DecodeUsedIn(7, 0))
}

func TestDecodeConsolOp(t *testing.T) {
	t.Parallel()

	packed := int64(0) | int64(2)<<6 | int64(6)<<12
	ops, err := DecodeConsolOp(packed, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"+", "*", "Never"}, ops)

	ops, err = DecodeConsolOp(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"+", "+"}, ops)
}

func TestDecodeConsolOpUnknown(t *testing.T) {
	t.Parallel()

	_, err := DecodeConsolOp(int64(8)<<6, 2)
	require.ErrorIs(t, err, ErrUnknownConsolOp)

	var opErr *ConsolOpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, 1, opErr.Category)
	assert.Equal(t, int64(8), opErr.Value)
}

func TestEscapeFormula(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "'=A+B", EscapeFormula("=A+B"))
	assert.Equal(t, "A=B", EscapeFormula("A=B"))
	assert.Equal(t, "", EscapeFormula(""))
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	row, err := ExpandPath(rowsource.Row{"    C1", nil, int64(2), "R|C1"})
	require.NoError(t, err)
	assert.Equal(t, rowsource.Row{"    C1", nil, int64(2), "R", "C1"}, row)

	_, err = ExpandPath(rowsource.Row{int64(1)})
	assert.Error(t, err)
}

func newLookups() *Lookups {
	l := NewLookups()
	l.AddAlias("Default", 10, "Total Entity")
	l.AddAlias("Default", 11, "East Region")
	l.AddAlias("French", 11, "Région Est")
	l.AddUDA(11, "HSP_NOLINK")
	l.AddUDA(11, "Region")
	l.AddAttribute("Size", 11, "Large")
	l.AddAttribute("Country", 11, "US")
	return l
}

func TestLookupsOrdering(t *testing.T) {
	t.Parallel()

	l := newLookups()
	assert.Equal(t, []string{"Default", "French"}, l.AliasTables())
	assert.Equal(t, []string{"Country", "Size"}, l.AttributeDimensions())

	aliases, udas, attrs := l.Stats()
	assert.Equal(t, 3, aliases)
	assert.Equal(t, 2, udas)
	assert.Equal(t, 2, attrs)
}

var memberFields = []string{"OBJECT_ID", "Entity", "PARENT", "DATA_STORAGE", "FORMULA", "CONSOL_OP", "USED_IN", "UDA"}

func TestDimensionHeaders(t *testing.T) {
	t.Parallel()

	d := NewDimension(newLookups(), []string{"Plan1", "Plan2"}, false)
	headers := d.SetHeaders(append([]string(nil), memberFields...))

	assert.Equal(t, []string{
		"Entity", "PARENT",
		"Alias: Default", "Alias: French",
		"DATA_STORAGE", "FORMULA",
		"Aggregation (Plan1)", "Aggregation (Plan2)",
		"Plan Type (Plan1)", "Plan Type (Plan2)",
		"UDA",
		"Country", "Size",
	}, headers)
}

func TestDimensionEnrich(t *testing.T) {
	t.Parallel()

	d := NewDimension(newLookups(), []string{"Plan1", "Plan2"}, false)
	headers := d.SetHeaders(append([]string(nil), memberFields...))

	row, err := d.Enrich(rowsource.Row{int64(11), "East", "Total", "Store", "=@SUM(x)", int64(2) << 6, int64(0b10), UDAPlaceholder})
	require.NoError(t, err)
	require.Len(t, row, len(headers))
	assert.Equal(t, rowsource.Row{
		"East", "Total",
		"East Region", "Région Est",
		"Store", "=@SUM(x)",
		"+", "*",
		"False", "True",
		"HSP_NOLINK,Region",
		"US", "Large",
	}, row)

	row, err = d.Enrich(rowsource.Row{int64(10), "Total", "Entity", "Store", nil, int64(0), int64(1), UDAPlaceholder})
	require.NoError(t, err)
	require.Len(t, row, len(headers))
	assert.Equal(t, "Total Entity", row[2])
	assert.Nil(t, row[3], "missing alias stays null")
	assert.Equal(t, "", row[10], "no UDAs leaves an empty cell")
	assert.Equal(t, "", row[11], "missing attribute is empty")
}

func TestDimensionEnrichEscapesFormulasForSpreadsheets(t *testing.T) {
	t.Parallel()

	d := NewDimension(NewLookups(), []string{"Plan1"}, true)
	d.SetHeaders(append([]string(nil), memberFields...))

	row, err := d.Enrich(rowsource.Row{int64(1), "A", "B", "Store", "=X", int64(0), int64(1), "UDA_Placeholder"})
	require.NoError(t, err)
	assert.Equal(t, "'=X", row[3])
}

func TestDimensionEnrichBadOperator(t *testing.T) {
	t.Parallel()

	d := NewDimension(NewLookups(), []string{"Plan1"}, false)
	d.SetHeaders(append([]string(nil), memberFields...))

	_, err := d.Enrich(rowsource.Row{int64(5), "A", "B", "Store", nil, int64(42), int64(1), ""})
	require.ErrorIs(t, err, ErrUnknownConsolOp)
	assert.Contains(t, err.Error(), "member 5")
}

func TestDimensionAttributeDimensionLayout(t *testing.T) {
	t.Parallel()

	l := NewLookups()
	l.AddAlias("Default", 3, "Big")
	d := NewDimension(l, []string{"Plan1"}, false)

	headers := d.SetHeaders([]string{"OBJECT_ID", "Size", "PARENT"})
	assert.Equal(t, []string{"Size", "PARENT", "Alias: Default"}, headers)

	row, err := d.Enrich(rowsource.Row{int64(3), "Large", "Size"})
	require.NoError(t, err)
	assert.Equal(t, rowsource.Row{"Large", "Size", "Big"}, row)
}

func TestDimensionEnrichWithoutHeaders(t *testing.T) {
	t.Parallel()

	d := NewDimension(NewLookups(), nil, false)
	_, err := d.Enrich(rowsource.Row{int64(1)})
	assert.Error(t, err)
}
