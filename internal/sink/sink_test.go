package sink

// Test Plan for Sinks:
// - FormatCell renders nil, integers, floats (with and without decimals), bools and strings
// - strings holding the separator, quotes or line breaks are quoted and round-trip through encoding/csv
// - digit-only strings such as "00123" are quoted; mixed strings are not
// - StripLineBreaks collapses CR/LF sequences to one space before quoting
// - QuoteNever writes strings verbatim
// - text sink writes the UTF-8 BOM once on a fresh file and never on append
// - text sink appends under an existing header without repeating it
// - header cells are quoted like data cells unless quoting is off
// - text sink encodes UTF-16LE with its own BOM
// - a BOM request for a single-byte charset fails with ErrNoByteOrderMark
// - records sink counts only rows added by the current call
// - discard sink counts rows
// - New rejects targets missing their destination
// - ParseKind round-trips Kind.String

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		opts  TextOptions
		want  string
	}{
		{"nil default", nil, TextOptions{}, ""},
		{"nil placeholder", nil, TextOptions{NullValue: "#missing"}, "#missing"},
		{"int", int64(42), TextOptions{}, "42"},
		{"int with decimals", int64(42), TextOptions{Decimals: 2}, "42.00"},
		{"float", 1.5, TextOptions{}, "1.5"},
		{"float with decimals", 1.23456, TextOptions{Decimals: 3}, "1.235"},
		{"bool", true, TextOptions{}, "true"},
		{"plain string", "Entity", TextOptions{}, "Entity"},
		{"digits quoted", "00123", TextOptions{}, `"00123"`},
		{"mixed not quoted", "A00123", TextOptions{}, "A00123"},
		{"empty not quoted", "", TextOptions{}, ""},
		{"separator quoted", "a\tb", TextOptions{}, "\"a\tb\""},
		{"comma only with comma separator", "a,b", TextOptions{FieldSeparator: ","}, `"a,b"`},
		{"comma under tab separator", "a,b", TextOptions{}, "a,b"},
		{"quotes doubled", `say "hi"`, TextOptions{}, `"say ""hi"""`},
		{"line breaks stripped", "a\r\nb\nc\rd", TextOptions{StripLineBreaks: true}, "a b c d"},
		{"line break quoted", "a\nb", TextOptions{}, "\"a\nb\""},
		{"never quote", "00123", TextOptions{Quoting: QuoteNever}, "00123"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatCell(tt.value, tt.opts))
		})
	}
}

func TestQuotedCellsRoundTrip(t *testing.T) {
	t.Parallel()

	values := []string{
		"plain",
		"has,comma",
		`has "quotes"`,
		"has\nnewline",
		"00123",
		`mix, "of" everything` + "\n",
	}
	opts := TextOptions{FieldSeparator: ","}

	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = FormatCell(v, opts)
	}
	line := strings.Join(cells, ",") + "\n"

	r := csv.NewReader(strings.NewReader(line))
	r.Comma = ','
	record, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, values, record)
}

func writeText(t *testing.T, fs afero.Fs, path string, opts TextOptions, header []string, rows ...rowsource.Row) int {
	t.Helper()
	s, err := New(fs, ToFile(path), opts)
	require.NoError(t, err)
	if header != nil {
		require.NoError(t, s.WriteHeader(header))
	}
	for _, r := range rows {
		require.NoError(t, s.WriteRow(r))
	}
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")
	return s.RowCount()
}

func TestTextSinkAppendWritesSingleHeaderAndBOM(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	opts := TextOptions{FieldSeparator: ",", Encoding: "utf-8|bom"}

	n := writeText(t, fs, "out.csv", opts, []string{"Name", "Code"}, rowsource.Row{"a", "001"})
	assert.Equal(t, 1, n)

	opts.Append = true
	n = writeText(t, fs, "out.csv", opts, nil, rowsource.Row{"b", "002"}, rowsource.Row{"c", nil})
	assert.Equal(t, 2, n)

	data, err := afero.ReadFile(fs, "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFName,Code\na,\"001\"\nb,\"002\"\nc,\n", string(data))
	assert.Equal(t, 1, strings.Count(string(data), "\xEF\xBB\xBF"))
	assert.Equal(t, 1, strings.Count(string(data), "Name,Code"))
}

func TestTextSinkAppendToMissingFileWritesBOM(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeText(t, fs, "new.csv", TextOptions{Encoding: "utf-8|bom", Append: true}, nil, rowsource.Row{"x"})

	data, err := afero.ReadFile(fs, "new.csv")
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFx\n", string(data))
}

func TestTextSinkTruncates(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out.txt", []byte("old content\n"), 0o644))

	writeText(t, fs, "out.txt", TextOptions{}, []string{"A", "B"}, rowsource.Row{int64(1), 2.5})

	data, err := afero.ReadFile(fs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "A\tB\n1\t2.5\n", string(data))
}

func TestTextSinkQuotesHeaderCells(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	header := []string{"Entity", "Alias: North, South", "Region"}
	writeText(t, fs, "out.csv", TextOptions{FieldSeparator: ","}, header, rowsource.Row{"East", "Eastern, Coast", "North"})

	data, err := afero.ReadFile(fs, "out.csv")
	require.NoError(t, err)
	assert.Equal(t, "Entity,\"Alias: North, South\",Region\nEast,\"Eastern, Coast\",North\n", string(data))

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, header, records[0])
	assert.Len(t, records[1], len(header))

	writeText(t, fs, "raw.csv", TextOptions{FieldSeparator: ",", Quoting: QuoteNever}, []string{"A,B"})
	data, err = afero.ReadFile(fs, "raw.csv")
	require.NoError(t, err)
	assert.Equal(t, "A,B\n", string(data))
}

func TestTextSinkUTF16(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeText(t, fs, "out.txt", TextOptions{Encoding: "utf-16le|bom"}, nil, rowsource.Row{"A"})

	data, err := afero.ReadFile(fs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFE, 'A', 0x00, '\n', 0x00}, data)
}

func TestTextSinkEncodingErrors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	_, err := New(fs, ToFile("a.txt"), TextOptions{Encoding: "windows-1252|bom"})
	require.ErrorIs(t, err, ErrNoByteOrderMark)

	_, err = New(fs, ToFile("b.txt"), TextOptions{Encoding: "no-such-charset"})
	require.Error(t, err)
}

func TestRecordsSinkCountsOnlyNewRows(t *testing.T) {
	t.Parallel()

	records := NewRecords()

	s, err := New(nil, ToRecords(records), TextOptions{})
	require.NoError(t, err)
	require.NoError(t, s.WriteHeader([]string{"A"}))
	require.NoError(t, s.WriteRow(rowsource.Row{"1"}))
	require.NoError(t, s.Close())
	assert.Equal(t, 1, s.RowCount())

	s, err = New(nil, ToRecords(records), TextOptions{})
	require.NoError(t, err)
	require.NoError(t, s.WriteRow(rowsource.Row{"2"}))
	require.NoError(t, s.WriteRow(rowsource.Row{"3"}))
	require.NoError(t, s.Close())
	assert.Equal(t, 2, s.RowCount())

	assert.Equal(t, 4, records.Len())
	assert.Equal(t, rowsource.Row{"A"}, records.Rows()[0])
}

func TestDiscardSink(t *testing.T) {
	t.Parallel()

	s, err := New(nil, Discard(), TextOptions{})
	require.NoError(t, err)
	require.NoError(t, s.WriteHeader([]string{"A"}))
	require.NoError(t, s.WriteRow(rowsource.Row{"x"}))
	require.NoError(t, s.WriteRow(rowsource.Row{"y"}))
	assert.Equal(t, 2, s.RowCount())
}

func TestNewRejectsIncompleteTargets(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Target{Kind: KindRecords}, TextOptions{})
	assert.Error(t, err)
	_, err = New(nil, Target{Kind: KindSheet}, TextOptions{})
	assert.Error(t, err)
	_, err = New(afero.NewMemMapFs(), Target{Kind: KindText}, TextOptions{})
	assert.Error(t, err)
	_, err = New(nil, Target{Kind: Kind(99)}, TextOptions{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{KindDiscard, KindRecords, KindText, KindSheet} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("xml")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
