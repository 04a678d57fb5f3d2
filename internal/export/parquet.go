package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes one table as a parquet file of optional string columns.
func WriteParquet(path string, t Table) error {
	group := make(parquet.Group, len(t.Columns))
	for _, c := range t.Columns {
		group[c] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema(t.Name, group)

	// Group fields are ordered by name, so map each column to its leaf index.
	leaf := make(map[string]int, len(t.Columns))
	for i, f := range schema.Fields() {
		leaf[f.Name()] = i
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := parquet.NewWriter(f, schema)
	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make(parquet.Row, len(t.Columns))
		for i, c := range t.Columns {
			col := leaf[c]
			if r[i] == "" {
				row[col] = parquet.NullValue().Level(0, 0, col)
			} else {
				row[col] = parquet.ByteArrayValue([]byte(r[i])).Level(0, 1, col)
			}
		}
		rows = append(rows, row)
	}
	if _, err := w.WriteRows(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return f.Close()
}
