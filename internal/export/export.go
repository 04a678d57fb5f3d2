// Package export copies a run's CSV tables into formats better suited to analysis.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

// Format selects the export writer.
type Format string

const (
	SQLite  Format = "sqlite"
	Parquet Format = "parquet"
)

// SQLiteFile is the database written into the run directory.
const SQLiteFile = "reconcile.sqlite"

// ParseFormat accepts sqlite or parquet.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case SQLite, Parquet:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (supported: sqlite, parquet)", s)
}

// Table is one CSV file loaded for export.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

var nonIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// TableName turns a file name into a lower_snake identifier.
func TableName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(base), "_"), "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}
	return name
}

// uniqueColumns suffixes repeated header names, e.g. a second OCLC_NUMBER
// becomes OCLC_NUMBER_2. Names are compared case-insensitively.
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for _, h := range header {
		used[strings.ToLower(strings.TrimSpace(h))] = true
	}
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if taken[strings.ToLower(name)] {
			base := name
			for n := 2; ; n++ {
				name = base + "_" + strconv.Itoa(n)
				if key := strings.ToLower(name); !taken[key] && !used[key] {
					break
				}
			}
		}
		taken[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

// FromSheet names a sheet and makes its columns unique. Short rows are padded.
func FromSheet(name string, s records.Sheet) Table {
	t := Table{
		Name:    name,
		Columns: uniqueColumns(s.Header),
		Rows:    make([][]string, 0, len(s.Rows)),
	}
	for _, r := range s.Rows {
		row := make([]string, len(t.Columns))
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// LoadDir reads every CSV in dir, in name order.
func LoadDir(dir string) ([]Table, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list CSV files: %w", err)
	}
	sort.Strings(paths)

	tables := make([]Table, 0, len(paths))
	for _, p := range paths {
		sheet, err := records.ReadSheet(p)
		if err != nil {
			return nil, err
		}
		if len(sheet.Header) == 0 {
			slog.Warn("Skipping empty CSV", "file", p)
			continue
		}
		tables = append(tables, FromSheet(TableName(p), sheet))
	}
	return tables, nil
}

// Dir exports every CSV in dir and returns the files written.
func Dir(dir string, format Format) ([]string, error) {
	tables, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no CSV tables found in %s", dir)
	}

	switch format {
	case SQLite:
		path := filepath.Join(dir, SQLiteFile)
		if err := WriteSQLite(path, tables); err != nil {
			return nil, err
		}
		return []string{path}, nil
	case Parquet:
		var paths []string
		for _, t := range tables {
			path := filepath.Join(dir, t.Name+".parquet")
			if err := WriteParquet(path, t); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old %s: %w", path, err)
	}
	return nil
}
