package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// QuotePolicy controls when string cells are wrapped in double quotes.
type QuotePolicy int

const (
	// QuoteAmbiguous quotes strings holding the separator, a quote, a line
	// break, or nothing but digits.
	QuoteAmbiguous QuotePolicy = iota
	// QuoteNever writes strings verbatim.
	QuoteNever
)

// TextOptions configures the delimited text writer.
type TextOptions struct {
	FieldSeparator string

	// Encoding is a charset name optionally followed by "|bom", e.g.
	// "utf-8|bom" or "utf-16le|bom". Empty means UTF-8 without a BOM.
	Encoding string

	// Decimals fixes the number of places for numeric cells; 0 keeps the
	// default rendering.
	Decimals int

	Append          bool
	NullValue       string
	StripLineBreaks bool
	Quoting         QuotePolicy
}

func (o TextOptions) separator() string {
	if o.FieldSeparator == "" {
		return "\t"
	}
	return o.FieldSeparator
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// FormatCell renders one cell for a delimited text file.
func FormatCell(v any, o TextOptions) string {
	switch val := v.(type) {
	case nil:
		return o.NullValue
	case string:
		return formatString(val, o)
	case int64:
		if o.Decimals > 0 {
			return strconv.FormatFloat(float64(val), 'f', o.Decimals, 64)
		}
		return strconv.FormatInt(val, 10)
	case int:
		return FormatCell(int64(val), o)
	case float64:
		if o.Decimals > 0 {
			return strconv.FormatFloat(val, 'f', o.Decimals, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}

func formatString(s string, o TextOptions) string {
	if o.StripLineBreaks {
		s = lineBreaks.Replace(s)
	}
	if o.Quoting == QuoteAmbiguous && needsQuotes(s, o.separator()) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func needsQuotes(s, sep string) bool {
	if strings.Contains(s, sep) || strings.ContainsAny(s, "\"\r\n") {
		return true
	}
	return isDigits(s)
}

// isDigits reports whether s is non-empty and consists only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseEncoding splits a setting such as "utf-16le|bom" into the charset and
// the BOM flag. A nil encoding means UTF-8 passthrough.
func parseEncoding(value string) (encoding.Encoding, bool, error) {
	name, flags, _ := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "|")
	bom := flags == "bom"
	switch name {
	case "", "utf-8", "utf8":
		return nil, bom, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, false, fmt.Errorf("encoding %q: %w", name, err)
	}
	return enc, bom, nil
}

// CheckEncoding reports whether value names a known encoding, optionally
// followed by "|bom".
func CheckEncoding(value string) error {
	_, _, err := parseEncoding(value)
	return err
}

func byteOrderMark(enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return []byte{0xEF, 0xBB, 0xBF}, nil
	}
	mark, err := enc.NewEncoder().Bytes([]byte("\uFEFF"))
	if err != nil {
		return nil, ErrNoByteOrderMark
	}
	return mark, nil
}

type textSink struct {
	file   afero.File
	buf    *bufio.Writer
	enc    *transform.Writer
	out    io.Writer
	opts   TextOptions
	rows   int
	closed bool
}

func openText(fs afero.Fs, path string, o TextOptions) (*textSink, error) {
	enc, bom, err := parseEncoding(o.Encoding)
	if err != nil {
		return nil, err
	}
	var mark []byte
	if bom {
		if mark, err = byteOrderMark(enc); err != nil {
			return nil, fmt.Errorf("%s: %w", o.Encoding, err)
		}
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if o.Append {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := fs.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &textSink{file: f, buf: bufio.NewWriter(f), opts: o}
	s.out = s.buf
	if enc != nil {
		s.enc = transform.NewWriter(s.buf, enc.NewEncoder())
		s.out = s.enc
	}

	// The marker only belongs at the start of a file.
	if mark != nil {
		fresh := !o.Append
		if !fresh {
			info, err := f.Stat()
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			fresh = info.Size() == 0
		}
		if fresh {
			if _, err := s.buf.Write(mark); err != nil {
				s.Close()
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
		}
	}
	return s, nil
}

func (s *textSink) WriteHeader(header []string) error {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = formatString(h, s.opts)
	}
	return s.writeLine(strings.Join(cells, s.opts.separator()))
}

func (s *textSink) WriteRow(row rowsource.Row) error {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = FormatCell(v, s.opts)
	}
	if err := s.writeLine(strings.Join(cells, s.opts.separator())); err != nil {
		return err
	}
	s.rows++
	return nil
}

func (s *textSink) writeLine(line string) error {
	if _, err := io.WriteString(s.out, line+"\n"); err != nil {
		return fmt.Errorf("write %s: %w", s.file.Name(), err)
	}
	return nil
}

func (s *textSink) RowCount() int { return s.rows }

// Close flushes and closes the file. Safe to call more than once.
func (s *textSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.enc != nil {
		firstErr = s.enc.Close()
	}
	if err := s.buf.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("close %s: %w", s.file.Name(), firstErr)
	}
	return nil
}
