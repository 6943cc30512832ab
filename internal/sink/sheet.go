package sink

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

const (
	defaultMaxColumnWidth = 40.0
	defaultTitleFill      = "4F81BD"
	columnPadding         = 2.0
)

// WorkbookOptions configures sheet finalisation.
type WorkbookOptions struct {
	// MaxColumnWidth caps every column that is not frozen.
	MaxColumnWidth float64
	// TitleFill is the RGB fill colour of the header row.
	TitleFill string
}

// Workbook is a spreadsheet with one sheet per extract category.
type Workbook struct {
	file       *excelize.File
	opts       WorkbookOptions
	titleStyle int
	sheets     []*Sheet
}

// Sheet is one worksheet being appended to. Several extract calls may write
// into the same sheet; the first one writes the title row.
type Sheet struct {
	wb     *Workbook
	name   string
	freeze int
	next   int
	widths []float64
	cols   int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook(opts WorkbookOptions) (*Workbook, error) {
	if opts.MaxColumnWidth <= 0 {
		opts.MaxColumnWidth = defaultMaxColumnWidth
	}
	if opts.TitleFill == "" {
		opts.TitleFill = defaultTitleFill
	}

	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{opts.TitleFill}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create title style: %w", err)
	}
	return &Workbook{file: f, opts: opts, titleStyle: style}, nil
}

// AddSheet appends a worksheet. freezeColumns leading columns are frozen and
// excluded from width capping.
func (w *Workbook) AddSheet(name string, freezeColumns int) (*Sheet, error) {
	if len(w.sheets) == 0 {
		// excelize starts every workbook with a default sheet.
		if err := w.file.SetSheetName(w.file.GetSheetName(0), name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, err)
	}
	s := &Sheet{wb: w, name: name, freeze: freezeColumns, next: 1}
	w.sheets = append(w.sheets, s)
	return s, nil
}

// Sheets returns the sheets in creation order.
func (w *Workbook) Sheets() []*Sheet { return w.sheets }

// Empty reports whether no sheet has been added.
func (w *Workbook) Empty() bool { return len(w.sheets) == 0 }

// Save finalises every sheet and writes the workbook to path.
func (w *Workbook) Save(fs afero.Fs, path string) (err error) {
	if w.Empty() {
		return errors.New("workbook has no sheets")
	}
	for _, s := range w.sheets {
		if err := s.finish(w.opts.MaxColumnWidth); err != nil {
			return err
		}
	}
	w.file.SetActiveSheet(0)

	out, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Close releases the workbook's resources.
func (w *Workbook) Close() error { return w.file.Close() }

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// Rows returns the number of rows written, title row included.
func (s *Sheet) Rows() int { return s.next - 1 }

func (s *Sheet) writeRow(values []any, title bool) error {
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		return err
	}
	if err := s.wb.file.SetSheetRow(s.name, cell, &values); err != nil {
		return fmt.Errorf("write sheet %q row %d: %w", s.name, s.next, err)
	}
	if title {
		if err := s.wb.file.SetRowStyle(s.name, s.next, s.next, s.wb.titleStyle); err != nil {
			return fmt.Errorf("style sheet %q: %w", s.name, err)
		}
	}
	for i, v := range values {
		if i >= len(s.widths) {
			s.widths = append(s.widths, 0)
		}
		if width := float64(utf8.RuneCountInString(FormatCell(v, TextOptions{Quoting: QuoteNever}))); width > s.widths[i] {
			s.widths[i] = width
		}
	}
	if len(values) > s.cols {
		s.cols = len(values)
	}
	s.next++
	return nil
}

// finish sizes columns, freezes the title row and leading columns, and turns
// on the auto-filter.
func (s *Sheet) finish(maxWidth float64) error {
	f := s.wb.file
	for i, w := range s.widths {
		width := w + columnPadding
		if i >= s.freeze && width > maxWidth {
			width = maxWidth
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return fmt.Errorf("size sheet %q column %s: %w", s.name, col, err)
		}
	}

	topLeft, err := excelize.CoordinatesToCellName(s.freeze+1, 2)
	if err != nil {
		return err
	}
	pane := "bottomLeft"
	if s.freeze > 0 {
		pane = "bottomRight"
	}
	if err := f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		XSplit:      s.freeze,
		YSplit:      1,
		TopLeftCell: topLeft,
		ActivePane:  pane,
	}); err != nil {
		return fmt.Errorf("freeze sheet %q: %w", s.name, err)
	}

	if s.cols == 0 || s.Rows() == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(s.cols, s.Rows())
	if err != nil {
		return err
	}
	if err := f.AutoFilter(s.name, "A1:"+last, nil); err != nil {
		return fmt.Errorf("filter sheet %q: %w", s.name, err)
	}
	return nil
}

type sheetSink struct {
	sheet *Sheet
	rows  int
}

func (s *sheetSink) WriteHeader(header []string) error {
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	return s.sheet.writeRow(values, true)
}

func (s *sheetSink) WriteRow(row rowsource.Row) error {
	if err := s.sheet.writeRow([]any(row), false); err != nil {
		return err
	}
	s.rows++
	return nil
}

func (s *sheetSink) RowCount() int { return s.rows }

// Close is a no-op: the sheet is finalised when the workbook is saved.
func (s *sheetSink) Close() error { return nil }
