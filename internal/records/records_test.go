package records

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sierraTable(recs ...Record) Table {
	t := SierraSchema(DefaultMarker, DefaultDelimiter).Table()
	t.Records = recs
	return t
}

func TestHeader(t *testing.T) {
	tbl := sierraTable()
	want := []string{"OCLC_NUMBER", "BIB_ID", "URL_SIERRA", "CID_SIERRA"}
	if diff := cmp.Diff(want, tbl.Header()); diff != "" {
		t.Errorf("Header() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupe(t *testing.T) {
	a := Record{JoinKey: "A", URL: "u1", Attrs: []string{"1", "b1"}}
	b := Record{JoinKey: "A", URL: "u1", Attrs: []string{"1", "b2"}}
	tbl := sierraTable(a, a, b, a)

	got := Dedupe(tbl)
	if diff := cmp.Diff([]Record{a, b}, got.Records); diff != "" {
		t.Errorf("Dedupe() mismatch (-want +got):\n%s", diff)
	}
	if tbl.Len() != 4 {
		t.Errorf("Expected input untouched with 4 records, got %d", tbl.Len())
	}

	again := Dedupe(got)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("Dedupe() not idempotent (-first +second):\n%s", diff)
	}
}

func TestKeys(t *testing.T) {
	tbl := sierraTable(
		Record{JoinKey: "B"}, Record{JoinKey: "A"}, Record{JoinKey: "B"},
	)
	if diff := cmp.Diff([]string{"B", "A"}, tbl.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestRekey(t *testing.T) {
	tbl := sierraTable(
		Record{JoinKey: "A", URL: "u1", Attrs: []string{"111", "b1"}},
		Record{JoinKey: "B", URL: "u2", Attrs: []string{"", "b2"}},
	)

	got := Rekey(tbl, "OCLC_NUMBER")

	wantHeader := []string{"BIB_ID", "CID_SIERRA", "URL_SIERRA", "OCLC_NUMBER"}
	if diff := cmp.Diff(wantHeader, got.Header()); diff != "" {
		t.Errorf("Header() mismatch (-want +got):\n%s", diff)
	}
	want := []Record{{JoinKey: "111", URL: "u1", Attrs: []string{"b1", "A"}}}
	if diff := cmp.Diff(want, got.Records); diff != "" {
		t.Errorf("Rekey() mismatch (-want +got):\n%s", diff)
	}
}

func TestTableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sierra_prepped.csv")
	tbl := sierraTable(
		Record{JoinKey: "A", URL: "http://x/item?cid=A", Attrs: []string{"111", "b1"}},
		Record{JoinKey: "B", URL: "http://x/item?cid=B", Attrs: []string{"222", "b2, with comma"}},
	)

	if err := WriteTable(path, tbl); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	got, err := ReadTable(path, "sierra")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if diff := cmp.Diff(tbl, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTableFromSheetMissingColumns(t *testing.T) {
	s := Sheet{Header: []string{"URL_NAXOS", "CID_NAXOS"}}
	if _, err := TableFromSheet("sierra", s); err == nil {
		t.Errorf("Expected error for missing sierra columns")
	}
}

func TestReadSheetFromEmpty(t *testing.T) {
	s, err := ReadSheetFrom(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadSheetFrom() error = %v", err)
	}
	if len(s.Header) != 0 || len(s.Rows) != 0 {
		t.Errorf("Expected empty sheet, got %+v", s)
	}
}

func TestSheetValue(t *testing.T) {
	s, err := ReadSheetFrom(strings.NewReader("\ufeffA,B\n1,2\n3\n"))
	if err != nil {
		t.Fatalf("ReadSheetFrom() error = %v", err)
	}
	if got := s.Value(s.Rows[0], "a"); got != "1" {
		t.Errorf("Expected 1, got %q", got)
	}
	if got := s.Value(s.Rows[1], "B"); got != "" {
		t.Errorf("Expected empty cell for short row, got %q", got)
	}
	if s.Has("C") {
		t.Errorf("Expected no column C")
	}
}

func TestAppenderResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"K", "V"}

	a, err := NewAppender(path, header, false)
	if err != nil {
		t.Fatalf("NewAppender() error = %v", err)
	}
	if err := a.Write([]string{"1", "one"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	a, err = NewAppender(path, header, true)
	if err != nil {
		t.Fatalf("NewAppender(resume) error = %v", err)
	}
	if err := a.Write([]string{"2", "two"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "K,V\n1,one\n2,two\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func TestWriteSheetReportsDeviceFull(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	s := Sheet{Header: []string{"CID_SIERRA"}, Rows: [][]string{{"A"}}}
	if err := WriteSheet("/dev/full", s); err == nil {
		t.Errorf("Expected an error writing to a full device")
	}
}
