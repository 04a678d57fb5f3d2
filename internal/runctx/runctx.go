// Package runctx holds the per-run output directory every command writes into.
package runctx

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DateLayout names run directories, one per calendar day.
const DateLayout = "2006-01-02"

// Run is one invocation's output location.
type Run struct {
	ID  string
	Dir string
}

// New creates (if needed) the directory for now's date under root.
func New(root string, now time.Time) (*Run, error) {
	dir := filepath.Join(root, now.Format(DateLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Run{ID: uuid.New().String(), Dir: dir}, nil
}

// Open reuses an existing run directory, e.g. to resume a search.
func Open(dir string) (*Run, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("run directory %s is not a directory", dir)
	}
	return &Run{ID: uuid.New().String(), Dir: dir}, nil
}

// ForDate opens the run directory of an earlier day given as YYYY-MM-DD.
func ForDate(root, date string) (*Run, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}
	return Open(filepath.Join(root, date))
}

// Path returns name inside the run directory.
func (r *Run) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// Derived names an output file after its input, e.g.
// combined_urls_to_check.csv + "search_results" -> combined_urls_to_check_search_results.csv.
func (r *Run) Derived(input, suffix string) string {
	base := filepath.Base(input)
	base = base[:len(base)-len(filepath.Ext(base))]
	return r.Path(base + "_" + suffix + ".csv")
}
