// Package review summarizes search and URL-check results and pulls out the
// rows that need a cataloger's attention.
package review

import (
	"math"
	"strings"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/linkcheck"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcile"
)

// Row is one result row. Values holds the row as read so subsets can be
// written back out unchanged.
type Row struct {
	Values []string

	Searched     bool
	RecordCount  int
	MatchedKnown *bool

	// LinkStatus is nil when the row's URL was not checked.
	LinkStatus *linkcheck.Status
}

func (r Row) identity() string {
	return strings.Join(r.Values, "\x1f")
}

// Report aggregates one result file.
type Report struct {
	Kind             reconcile.Outcome
	Total            int
	WithAnyCandidate int
	WithExactMatch   int

	// LinkStatus holds only statuses seen at least once.
	LinkStatus map[linkcheck.Status]int

	NoCandidate  []Row
	ProblemLinks []Row
}

// Summarize counts rows after dropping exact duplicates.
func Summarize(rows []Row, kind reconcile.Outcome) Report {
	rep := Report{
		Kind:         kind,
		LinkStatus:   map[linkcheck.Status]int{},
		NoCandidate:  []Row{},
		ProblemLinks: []Row{},
	}

	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		id := row.identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		rep.Total++
		if row.RecordCount >= 1 {
			rep.WithAnyCandidate++
		}
		if row.Searched && row.RecordCount == 0 {
			rep.NoCandidate = append(rep.NoCandidate, row)
		}
		if row.MatchedKnown != nil && *row.MatchedKnown {
			rep.WithExactMatch++
		}
		if row.LinkStatus != nil {
			rep.LinkStatus[*row.LinkStatus]++
			if row.LinkStatus.Problem() {
				rep.ProblemLinks = append(rep.ProblemLinks, row)
			}
		}
	}
	return rep
}

// Empty reports whether there was nothing to summarize.
func (r Report) Empty() bool {
	return r.Total == 0
}

// Percent expresses n as a percentage of Total rounded to two decimals.
// An empty report yields 0.
func (r Report) Percent(n int) float64 {
	if r.Total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(r.Total)*10000) / 100
}
