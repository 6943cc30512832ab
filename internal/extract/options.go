package extract

import (
	"strings"
	"unicode"

	"github.com/agardiner/epm-utils/internal/sink"
)

// HeaderMapper turns a source field name into display text.
type HeaderMapper func(field string) string

// HeaderMutator inserts, removes or reorders field names before mapping.
// It receives a copy of the source header and returns the output header.
type HeaderMutator func(fields []string) []string

// Options configures one dispatcher call. A value is read-only for the
// duration of the call.
type Options struct {
	FieldSeparator  string
	Encoding        string
	Append          bool
	IncludeHeaders  bool
	NullValue       string
	Decimals        int
	StripLineBreaks bool
	Quoting         sink.QuotePolicy

	HeaderMap  HeaderMapper
	SetHeaders HeaderMutator

	// Args are bind parameters appended to the query's own arguments.
	Args []any
}

// DefaultOptions returns tab-separated output with headers, ambiguous-string
// quoting and upper-case header text.
func DefaultOptions() Options {
	return Options{
		FieldSeparator: "\t",
		IncludeHeaders: true,
		Quoting:        sink.QuoteAmbiguous,
		HeaderMap:      UpperHeader,
	}
}

// CSV adjusts o for comma-separated consumers.
func (o Options) CSV() Options {
	o.FieldSeparator = ","
	return o
}

// normalized applies the invariants that hold for every call.
func (o Options) normalized() Options {
	if o.Append {
		o.IncludeHeaders = false
	}
	if o.HeaderMap == nil {
		o.HeaderMap = UpperHeader
	}
	return o
}

func (o Options) textOptions() sink.TextOptions {
	return sink.TextOptions{
		FieldSeparator:  o.FieldSeparator,
		Encoding:        o.Encoding,
		Append:          o.Append,
		NullValue:       o.NullValue,
		Decimals:        o.Decimals,
		StripLineBreaks: o.StripLineBreaks,
		Quoting:         o.Quoting,
	}
}

// UpperHeader upper-cases the field name.
func UpperHeader(field string) string { return strings.ToUpper(field) }

// TitleHeader turns FIELD_NAME into "Field Name". Underscores become spaces
// and every word starts upper case; apostrophes do not split words.
func TitleHeader(field string) string {
	s := strings.ToLower(strings.ReplaceAll(field, "_", " "))
	out := []rune(s)
	start := true
	for i, r := range out {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start {
				out[i] = unicode.ToUpper(r)
			}
			start = false
		case r == '\'':
		default:
			start = true
		}
	}
	return string(out)
}

// KeepHeader maps every field to TitleHeader except those equal (ignoring
// case) to keep, which are rendered as keep.
func KeepHeader(keep string) HeaderMapper {
	return func(field string) string {
		if strings.EqualFold(field, keep) {
			return keep
		}
		return TitleHeader(field)
	}
}
