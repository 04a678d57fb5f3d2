package review

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/linkcheck"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcile"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/worldcat"
)

// ResultsSuffix marks files written by search, check-urls and search-check.
const ResultsSuffix = "_results.csv"

// KindFor guesses which outcome table a result file came from by its name.
func KindFor(path string) reconcile.Outcome {
	if strings.Contains(filepath.Base(path), "import") {
		return reconcile.RightOnly
	}
	return reconcile.Matched
}

// Load reads a result file into rows. Rows whose count or status cannot be
// parsed are skipped and returned as errors.
func Load(path string) (records.Sheet, []Row, []error) {
	sheet, err := records.ReadSheet(path)
	if err != nil {
		return records.Sheet{}, nil, []error{err}
	}
	rows, errs := FromSheet(sheet)
	return sheet, rows, errs
}

// FromSheet converts result rows using the search and URL-check columns that are present.
func FromSheet(sheet records.Sheet) ([]Row, []error) {
	searched := sheet.Has(worldcat.ColumnRecordCount)
	checked := sheet.Has(linkcheck.Column)

	rows := make([]Row, 0, len(sheet.Rows))
	var errs []error
	for i, values := range sheet.Rows {
		row := Row{Values: values, Searched: searched}

		if searched {
			n, err := strconv.Atoi(strings.TrimSpace(sheet.Value(values, worldcat.ColumnRecordCount)))
			if err != nil {
				errs = append(errs, fmt.Errorf("row %d: invalid %s: %w", i+2, worldcat.ColumnRecordCount, err))
				continue
			}
			row.RecordCount = n
		}

		if v := strings.TrimSpace(sheet.Value(values, worldcat.ColumnMatch)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("row %d: invalid %s: %w", i+2, worldcat.ColumnMatch, err))
				continue
			}
			row.MatchedKnown = &b
		}

		if checked {
			s, err := linkcheck.ParseStatus(sheet.Value(values, linkcheck.Column))
			if err != nil {
				errs = append(errs, fmt.Errorf("row %d: %w", i+2, err))
				continue
			}
			row.LinkStatus = &s
		}

		rows = append(rows, row)
	}
	return rows, errs
}

// Subset file names derived from a result file.
func subsetPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// Paths of the files written by WriteFiles.
type Paths struct {
	NoCandidate  string
	ProblemLinks string
	Summary      string
}

// WriteFiles writes the review subsets next to the result file, plus a YAML summary.
func WriteFiles(path string, header []string, rep Report) (Paths, error) {
	p := Paths{
		NoCandidate:  subsetPath(path, "_no_candidates.csv"),
		ProblemLinks: subsetPath(path, "_problem_links.csv"),
		Summary:      subsetPath(path, "_summary.yaml"),
	}

	if err := records.WriteSheet(p.NoCandidate, records.Sheet{Header: header, Rows: values(rep.NoCandidate)}); err != nil {
		return Paths{}, fmt.Errorf("failed to write rows without candidates: %w", err)
	}
	if err := records.WriteSheet(p.ProblemLinks, records.Sheet{Header: header, Rows: values(rep.ProblemLinks)}); err != nil {
		return Paths{}, fmt.Errorf("failed to write problem links: %w", err)
	}
	if err := SaveYAML(p.Summary, NewSummary(filepath.Base(path), rep, time.Now())); err != nil {
		return Paths{}, err
	}
	return p, nil
}

func values(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values)
	}
	return out
}

// Count is a number with its share of the total.
type Count struct {
	Count   int     `yaml:"count"`
	Percent float64 `yaml:"percent"`
}

// Summary is the YAML form of a report.
type Summary struct {
	File             string           `yaml:"file"`
	Kind             string           `yaml:"kind"`
	Generated        string           `yaml:"generated"`
	Total            int              `yaml:"total"`
	WithAnyCandidate Count            `yaml:"withanycandidate"`
	WithExactMatch   *Count           `yaml:"withexactmatch,omitempty"`
	LinkStatus       map[string]Count `yaml:"linkstatus,omitempty"`
	NoCandidate      int              `yaml:"nocandidate"`
	ProblemLinks     int              `yaml:"problemlinks"`
}

// NewSummary flattens a report for saving.
func NewSummary(file string, rep Report, now time.Time) Summary {
	s := Summary{
		File:             file,
		Kind:             rep.Kind.String(),
		Generated:        now.Format("2006-01-02_15-04-05"),
		Total:            rep.Total,
		WithAnyCandidate: Count{rep.WithAnyCandidate, rep.Percent(rep.WithAnyCandidate)},
		NoCandidate:      len(rep.NoCandidate),
		ProblemLinks:     len(rep.ProblemLinks),
	}
	if rep.Kind == reconcile.Matched {
		s.WithExactMatch = &Count{rep.WithExactMatch, rep.Percent(rep.WithExactMatch)}
	}
	if len(rep.LinkStatus) > 0 {
		s.LinkStatus = make(map[string]Count, len(rep.LinkStatus))
		for status, n := range rep.LinkStatus {
			s.LinkStatus[status.String()] = Count{n, rep.Percent(n)}
		}
	}
	return s
}

// SaveYAML writes the summary to path.
func SaveYAML(path string, s Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// ResultFiles lists every *_results.csv in dir, sorted by name.
func ResultFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ResultsSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// File reviews one result file: it summarizes, writes the subsets and returns the report.
func File(path string) (Report, Paths, error) {
	sheet, rows, errs := Load(path)
	if sheet.Header == nil && len(errs) > 0 {
		return Report{}, Paths{}, errs[0]
	}
	for _, err := range errs {
		slog.Warn("Skipping result row", "file", path, "error", err)
	}

	rep := Summarize(rows, KindFor(path))
	paths, err := WriteFiles(path, sheet.Header, rep)
	if err != nil {
		return Report{}, Paths{}, err
	}
	return rep, paths, nil
}
