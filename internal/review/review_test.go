package review

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/linkcheck"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcile"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

func status(s linkcheck.Status) *linkcheck.Status { return &s }
func flag(b bool) *bool                           { return &b }

func TestSummarizeSevenOfTen(t *testing.T) {
	var rows []Row
	for i := 0; i < 10; i++ {
		count := 0
		if i < 7 {
			count = i + 1
		}
		rows = append(rows, Row{
			Values:      []string{strconv.Itoa(i)},
			Searched:    true,
			RecordCount: count,
		})
	}

	rep := Summarize(rows, reconcile.RightOnly)

	if rep.Total != 10 {
		t.Errorf("Expected total 10, got %d", rep.Total)
	}
	if rep.WithAnyCandidate != 7 {
		t.Errorf("Expected 7 with candidates, got %d", rep.WithAnyCandidate)
	}
	if got := rep.Percent(rep.WithAnyCandidate); got != 70 {
		t.Errorf("Expected 70%%, got %v", got)
	}
	if len(rep.NoCandidate) != 3 {
		t.Errorf("Expected 3 rows without candidates, got %d", len(rep.NoCandidate))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	rep := Summarize(nil, reconcile.Matched)
	if !rep.Empty() {
		t.Errorf("Expected empty report")
	}
	if got := rep.Percent(0); got != 0 {
		t.Errorf("Expected 0%%, got %v", got)
	}
	if len(rep.LinkStatus) != 0 || len(rep.NoCandidate) != 0 || len(rep.ProblemLinks) != 0 {
		t.Errorf("Expected no counts in empty report, got %+v", rep)
	}

	var buf bytes.Buffer
	rep.WriteSummary(&buf, "empty", false)
	if !strings.Contains(buf.String(), "No records to review") {
		t.Errorf("Expected empty notice, got %q", buf.String())
	}
}

func TestSummarizeLinksAndMatches(t *testing.T) {
	rows := []Row{
		{Values: []string{"a"}, Searched: true, RecordCount: 1, MatchedKnown: flag(true), LinkStatus: status(linkcheck.Live)},
		{Values: []string{"a"}, Searched: true, RecordCount: 1, MatchedKnown: flag(true), LinkStatus: status(linkcheck.Live)},
		{Values: []string{"b"}, Searched: true, RecordCount: 2, MatchedKnown: flag(false), LinkStatus: status(linkcheck.Dead)},
		{Values: []string{"c"}, Searched: true, RecordCount: 0, MatchedKnown: flag(false), LinkStatus: status(linkcheck.Unknown)},
	}

	rep := Summarize(rows, reconcile.Matched)

	if rep.Total != 3 {
		t.Errorf("Expected duplicates dropped leaving 3, got %d", rep.Total)
	}
	if rep.WithExactMatch != 1 {
		t.Errorf("Expected 1 exact match, got %d", rep.WithExactMatch)
	}
	if _, ok := rep.LinkStatus[linkcheck.Blocked]; ok {
		t.Errorf("Expected unseen statuses to be absent")
	}
	if rep.LinkStatus[linkcheck.Dead] != 1 || rep.LinkStatus[linkcheck.Live] != 1 {
		t.Errorf("Unexpected link counts %v", rep.LinkStatus)
	}
	if len(rep.ProblemLinks) != 2 {
		t.Errorf("Expected 2 problem links, got %d", len(rep.ProblemLinks))
	}
	if got := rep.Percent(1); got != 33.33 {
		t.Errorf("Expected 33.33, got %v", got)
	}
}

func TestKindFor(t *testing.T) {
	if KindFor("/x/records_to_import_search_results.csv") != reconcile.RightOnly {
		t.Errorf("Expected import file to be RightOnly")
	}
	if KindFor("/x/combined_urls_to_check_full_results.csv") != reconcile.Matched {
		t.Errorf("Expected check file to be Matched")
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combined_urls_to_check_full_results.csv")
	sheet := records.Sheet{
		Header: []string{"CID_SIERRA", "NUMBER_OF_RECORDS", "OCLC_NUMBER", "OCLC_SOURCE", "OCLC_MATCH", "URL_STATUS"},
		Rows: [][]string{
			{"A", "1", "111", "NAXOS", "true", "Live"},
			{"B", "0", "", "", "false", "Dead"},
			{"C", "three", "", "", "", "Live"},
			{"D", "2", "1|2", "NAXOS|DLC", "false", "Blocked"},
		},
	}
	require.NoError(t, records.WriteSheet(path, sheet))

	rep, paths, err := File(path)
	require.NoError(t, err)
	require.Equal(t, 3, rep.Total, "row with an invalid count is skipped")
	require.Equal(t, 2, rep.WithAnyCandidate)
	require.Equal(t, 1, rep.WithExactMatch)

	none, err := records.ReadSheet(paths.NoCandidate)
	require.NoError(t, err)
	require.Equal(t, sheet.Header, none.Header)
	require.Equal(t, [][]string{{"B", "0", "", "", "false", "Dead"}}, none.Rows)

	problems, err := records.ReadSheet(paths.ProblemLinks)
	require.NoError(t, err)
	require.Len(t, problems.Rows, 2)

	data, err := os.ReadFile(paths.Summary)
	require.NoError(t, err)
	var summary Summary
	require.NoError(t, yaml.Unmarshal(data, &summary))
	require.Equal(t, 3, summary.Total)
	require.Equal(t, "matched", summary.Kind)
	require.NotNil(t, summary.WithExactMatch)
	require.Equal(t, 33.33, summary.WithExactMatch.Percent)
	require.Equal(t, 1, summary.LinkStatus["Dead"].Count)
}

func TestResultFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_search_results.csv", "a_url_results.csv", "records_to_import.csv", "a_url_results_no_candidates.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("X\n"), 0644))
	}

	files, err := ResultFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a_url_results.csv"),
		filepath.Join(dir, "b_search_results.csv"),
	}, files)
}

func TestWriteSummaryStyledOff(t *testing.T) {
	rep := Summarize([]Row{{Values: []string{"a"}, Searched: true, RecordCount: 1, LinkStatus: status(linkcheck.Unavailable)}}, reconcile.RightOnly)

	var buf bytes.Buffer
	rep.WriteSummary(&buf, "records_to_import_full_results.csv", false)
	out := buf.String()
	for _, want := range []string{
		"Records with at least one match in WorldCat: 1/1, 100.00%",
		"Records unavailable in US: 1/1, 100.00%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "OCLC number from Sierra") {
		t.Errorf("Expected no Sierra match line for import files")
	}
}
