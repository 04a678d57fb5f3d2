package export

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

func writeRun(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, records.WriteSheet(filepath.Join(dir, "records_to_delete.csv"), records.Sheet{
		Header: []string{"OCLC_NUMBER", "BIB_ID", "URL_SIERRA", "CID_SIERRA"},
		Rows: [][]string{
			{"111", "b1", "http://x/?cid=1", "1"},
			{"", "b2", "http://x/?cid=2", "2"},
		},
	}))
	require.NoError(t, records.WriteSheet(filepath.Join(dir, "combined_urls_to_check_search_results.csv"), records.Sheet{
		Header: []string{"CID_SIERRA", "OCLC_NUMBER", "NUMBER_OF_RECORDS", "OCLC_NUMBER"},
		Rows:   [][]string{{"3", "333", "1", "444"}},
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	return dir
}

func TestTableName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/a/records_to_import.csv", want: "records_to_import"},
		{path: "sample-records to delete.csv", want: "sample_records_to_delete"},
		{path: "2024-01-01.csv", want: "t_2024_01_01"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := TableName(tt.path); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestUniqueColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{
			name:   "repeat and blank",
			header: []string{"OCLC_NUMBER", "BIB_ID", "oclc_number", ""},
			want:   []string{"OCLC_NUMBER", "BIB_ID", "oclc_number_2", "column_4"},
		},
		{
			name:   "suffix already present",
			header: []string{"A", "A_2", "A"},
			want:   []string{"A", "A_2", "A_3"},
		},
		{
			name:   "suffix appears later",
			header: []string{"A", "A", "A_2"},
			want:   []string{"A", "A_3", "A_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueColumns(tt.header)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("uniqueColumns() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteSQLiteCollidingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), SQLiteFile)
	tbl := FromSheet("t", records.Sheet{Header: []string{"A", "A_2", "A"}, Rows: [][]string{{"1", "2", "3"}}})
	require.NoError(t, WriteSQLite(path, []Table{tbl}))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var third string
	require.NoError(t, db.QueryRow(`SELECT "A_3" FROM t`).Scan(&third))
	require.Equal(t, "3", third)
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" SQLite "); err != nil || f != SQLite {
		t.Errorf("Expected sqlite, got %v %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}

func TestDirSQLite(t *testing.T) {
	dir := writeRun(t)

	paths, err := Dir(dir, SQLite)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, SQLiteFile)}, paths)

	db, err := sql.Open("sqlite", paths[0])
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM records_to_delete`).Scan(&n))
	require.Equal(t, 2, n)

	var bib string
	require.NoError(t, db.QueryRow(`SELECT BIB_ID FROM records_to_delete WHERE CID_SIERRA = ?`, "2").Scan(&bib))
	require.Equal(t, "b2", bib)

	var second string
	require.NoError(t, db.QueryRow(`SELECT OCLC_NUMBER_2 FROM combined_urls_to_check_search_results`).Scan(&second))
	require.Equal(t, "444", second)

	// exporting again replaces the database
	_, err = Dir(dir, SQLite)
	require.NoError(t, err)
}

func TestDirParquet(t *testing.T) {
	dir := writeRun(t)

	paths, err := Dir(dir, Parquet)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	f, err := os.Open(filepath.Join(dir, "records_to_delete.parquet"))
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(f, info.Size())
	require.NoError(t, err)
	require.Equal(t, int64(2), pf.NumRows())

	var names []string
	for _, field := range pf.Schema().Fields() {
		names = append(names, field.Name())
	}
	require.ElementsMatch(t, []string{"OCLC_NUMBER", "BIB_ID", "URL_SIERRA", "CID_SIERRA"}, names)
}

func TestDirEmpty(t *testing.T) {
	if _, err := Dir(t.TempDir(), SQLite); err == nil {
		t.Errorf("Expected error for a directory without CSV files")
	}
}
