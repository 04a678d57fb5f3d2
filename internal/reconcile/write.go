package reconcile

import (
	"fmt"
	"path/filepath"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

// Output file names inside a run directory.
const (
	MatchedFile   = "combined_urls_to_check.csv"
	LeftOnlyFile  = "records_to_delete.csv"
	RightOnlyFile = "records_to_import.csv"
)

// Paths of the three outcome tables written by Write.
type Paths struct {
	Matched   string
	LeftOnly  string
	RightOnly string
}

// Write stores the three outcome tables in dir.
func Write(dir string, res Result) (Paths, error) {
	p := Paths{
		Matched:   filepath.Join(dir, MatchedFile),
		LeftOnly:  filepath.Join(dir, LeftOnlyFile),
		RightOnly: filepath.Join(dir, RightOnlyFile),
	}
	if err := records.WriteSheet(p.Matched, res.MatchedSheet()); err != nil {
		return Paths{}, fmt.Errorf("failed to write matched records: %w", err)
	}
	if err := records.WriteTable(p.LeftOnly, res.LeftOnly); err != nil {
		return Paths{}, fmt.Errorf("failed to write records to delete: %w", err)
	}
	if err := records.WriteTable(p.RightOnly, res.RightOnly); err != nil {
		return Paths{}, fmt.Errorf("failed to write records to import: %w", err)
	}
	return p, nil
}
