package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sheet is a delimited file held in memory: one header row and the data rows below it.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the first column with the given name, or -1.
func (s Sheet) Index(col string) int {
	for i, h := range s.Header {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}

// Has reports whether the sheet has the named column.
func (s Sheet) Has(col string) bool {
	return s.Index(col) >= 0
}

// Value returns the named column of a row, or "" when the column or cell is missing.
func (s Sheet) Value(row []string, col string) string {
	i := s.Index(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadSheet reads a CSV file whose first row is a header.
func ReadSheet(path string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadSheetFrom(f)
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s, nil
}

// ReadSheetFrom reads CSV from r. Rows may have differing field counts; an
// empty input yields an empty sheet.
func ReadSheetFrom(r io.Reader) (Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Sheet{}, nil
	}
	if err != nil {
		return Sheet{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	s := Sheet{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Sheet{}, fmt.Errorf("read row %d: %w", len(s.Rows)+2, err)
		}
		s.Rows = append(s.Rows, rec)
	}
	return s, nil
}

// WriteSheet writes the header and rows to path, replacing any existing file.
func WriteSheet(path string, s Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(s.Header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := w.WriteAll(s.Rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Sheet flattens the table into its CSV form.
func (t Table) Sheet() Sheet {
	s := Sheet{Header: t.Header(), Rows: make([][]string, 0, len(t.Records))}
	for _, r := range t.Records {
		s.Rows = append(s.Rows, t.Row(r))
	}
	return s
}

// TableFromSheet rebuilds a table from a sheet holding URL_<NAME> and CID_<NAME>
// columns. Every other column becomes an attribute, in file order.
func TableFromSheet(name string, s Sheet) (Table, error) {
	t := NewTable(name)
	urlIdx := s.Index(t.URLColumn())
	keyIdx := s.Index(t.KeyColumn())
	if urlIdx < 0 || keyIdx < 0 {
		return Table{}, fmt.Errorf("missing required columns %q and %q", t.URLColumn(), t.KeyColumn())
	}

	var attrCols []int
	for i, h := range s.Header {
		if i == urlIdx || i == keyIdx {
			continue
		}
		attrCols = append(attrCols, i)
		t.Attrs = append(t.Attrs, h)
	}

	for n, row := range s.Rows {
		cell := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}
		key := strings.TrimSpace(cell(keyIdx))
		if key == "" {
			return Table{}, &MalformedRowError{Source: name, Row: n + 2, Reason: "empty join key"}
		}
		attrs := make([]string, len(attrCols))
		for i, c := range attrCols {
			attrs[i] = cell(c)
		}
		t.Records = append(t.Records, Record{JoinKey: key, URL: cell(urlIdx), Attrs: attrs})
	}
	return t, nil
}

// ReadTable reads a table previously written with WriteTable.
func ReadTable(path, name string) (Table, error) {
	s, err := ReadSheet(path)
	if err != nil {
		return Table{}, err
	}
	t, err := TableFromSheet(name, s)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load %s table from %s: %w", name, path, err)
	}
	return t, nil
}

// WriteTable writes the table with its header to path.
func WriteTable(path string, t Table) error {
	return WriteSheet(path, t.Sheet())
}

// Appender writes CSV rows one at a time, flushing after each so an
// interrupted run keeps every row it finished.
type Appender struct {
	f *os.File
	w *csv.Writer
}

// NewAppender opens path for row-at-a-time output. With resume set and an
// existing non-empty file, rows are appended after what is already there;
// otherwise the file is truncated and the header written first.
func NewAppender(path string, header []string, resume bool) (*Appender, error) {
	if resume {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("failed to open %s for append: %w", path, err)
			}
			return &Appender{f: f, w: csv.NewWriter(f)}, nil
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	a := &Appender{f: f, w: csv.NewWriter(f)}
	if err := a.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// Write writes and flushes one row.
func (a *Appender) Write(row []string) error {
	if err := a.w.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}
	return nil
}

func (a *Appender) Close() error {
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		a.f.Close()
		return err
	}
	return a.f.Close()
}
