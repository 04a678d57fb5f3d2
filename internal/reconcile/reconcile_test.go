package reconcile

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

func table(name string, pairs ...string) records.Table {
	t := records.NewTable(name)
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Records = append(t.Records, records.Record{JoinKey: pairs[i], URL: pairs[i+1], Attrs: []string{}})
	}
	return t
}

func keysOf(recs []records.Record) []string {
	var keys []string
	for _, r := range recs {
		keys = append(keys, r.JoinKey)
	}
	sort.Strings(keys)
	return keys
}

func distinct(t records.Table) []string {
	keys := t.Keys()
	sort.Strings(keys)
	return keys
}

func TestReconcileScenario(t *testing.T) {
	left := table("sierra", "42", "u1")
	right := table("naxos", "42", "u2", "99", "u3")

	res := Reconcile(left, right)

	want := []Pair{{
		Left:  records.Record{JoinKey: "42", URL: "u1", Attrs: []string{}},
		Right: records.Record{JoinKey: "42", URL: "u2", Attrs: []string{}},
	}}
	if diff := cmp.Diff(want, res.Matched); diff != "" {
		t.Errorf("Matched mismatch (-want +got):\n%s", diff)
	}
	if res.LeftOnly.Len() != 0 {
		t.Errorf("Expected no left-only records, got %d", res.LeftOnly.Len())
	}
	if diff := cmp.Diff([]string{"99"}, keysOf(res.RightOnly.Records)); diff != "" {
		t.Errorf("RightOnly mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileProperties(t *testing.T) {
	tests := []struct {
		name  string
		left  records.Table
		right records.Table
	}{
		{
			name:  "disjoint",
			left:  table("sierra", "A", "u1", "B", "u2"),
			right: table("naxos", "C", "u3", "D", "u4"),
		},
		{
			name:  "overlap with duplicates",
			left:  table("sierra", "A", "u1", "A", "u1", "B", "u2", "B", "u2b"),
			right: table("naxos", "B", "u3", "B", "u4", "C", "u5"),
		},
		{
			name:  "empty left",
			left:  table("sierra"),
			right: table("naxos", "C", "u3"),
		},
		{
			name:  "both empty",
			left:  table("sierra"),
			right: table("naxos"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconcile(tt.left, tt.right)

			var matchedLeft, matchedRight []records.Record
			for _, p := range res.Matched {
				if p.Left.JoinKey != p.Right.JoinKey {
					t.Fatalf("Expected pair to share a key, got %q and %q", p.Left.JoinKey, p.Right.JoinKey)
				}
				matchedLeft = append(matchedLeft, p.Left)
				matchedRight = append(matchedRight, p.Right)
			}

			leftUnion := uniq(append(keysOf(matchedLeft), keysOf(res.LeftOnly.Records)...))
			if diff := cmp.Diff(distinct(tt.left), leftUnion); diff != "" {
				t.Errorf("matched ∪ left_only mismatch (-want +got):\n%s", diff)
			}
			rightUnion := uniq(append(keysOf(matchedRight), keysOf(res.RightOnly.Records)...))
			if diff := cmp.Diff(distinct(tt.right), rightUnion); diff != "" {
				t.Errorf("matched ∪ right_only mismatch (-want +got):\n%s", diff)
			}

			outcomes := res.Outcomes()
			for _, k := range append(tt.left.Keys(), tt.right.Keys()...) {
				if _, ok := outcomes[k]; !ok {
					t.Errorf("Expected key %q to have an outcome", k)
				}
			}

			again := Reconcile(tt.left, tt.right)
			if diff := cmp.Diff(res, again); diff != "" {
				t.Errorf("Reconcile() not deterministic (-first +second):\n%s", diff)
			}
		})
	}
}

func uniq(keys []string) []string {
	sort.Strings(keys)
	out := []string{}
	for i, k := range keys {
		if i == 0 || keys[i-1] != k {
			out = append(out, k)
		}
	}
	return out
}

func TestReconcileDisjoint(t *testing.T) {
	left := table("sierra", "A", "u1", "B", "u2")
	right := table("naxos", "C", "u3")

	res := Reconcile(left, right)
	if len(res.Matched) != 0 {
		t.Errorf("Expected no matches, got %d", len(res.Matched))
	}
	if diff := cmp.Diff(left.Records, res.LeftOnly.Records); diff != "" {
		t.Errorf("LeftOnly mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(right.Records, res.RightOnly.Records); diff != "" {
		t.Errorf("RightOnly mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileJoinOrder(t *testing.T) {
	left := table("sierra", "A", "l1", "A", "l2")
	right := table("naxos", "A", "r1", "A", "r2")

	res := Reconcile(left, right)

	var got [][2]string
	for _, p := range res.Matched {
		got = append(got, [2]string{p.Left.URL, p.Right.URL})
	}
	want := [][2]string{{"l1", "r1"}, {"l1", "r2"}, {"l2", "r1"}, {"l2", "r2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("join order mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileLeavesInputsAlone(t *testing.T) {
	left := table("sierra", "A", "u1", "A", "u1")
	right := table("naxos", "A", "u2")

	Reconcile(left, right)
	if left.Len() != 2 {
		t.Errorf("Expected left input to keep its duplicate, got %d records", left.Len())
	}
}

func TestWrite(t *testing.T) {
	left := records.SierraSchema(records.DefaultMarker, records.DefaultDelimiter).Table()
	left.Records = []records.Record{
		{JoinKey: "42", URL: "http://x/item?cid=42", Attrs: []string{"111", "b1"}},
		{JoinKey: "7", URL: "http://x/item?cid=7", Attrs: []string{"222", "b2"}},
	}
	right := records.NaxosSchema(records.DefaultMarker, records.DefaultDelimiter).Table()
	right.Records = []records.Record{
		{JoinKey: "42", URL: "http://x/item?cid=42", Attrs: []string{"NML1", "Title", "Naxos", ""}},
	}

	dir := t.TempDir()
	paths, err := Write(dir, Reconcile(left, right))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, MatchedFile), paths.Matched)

	matched, err := records.ReadSheet(paths.Matched)
	require.NoError(t, err)
	wantHeader := []string{
		"OCLC_NUMBER", "BIB_ID", "URL_SIERRA", "CID_SIERRA",
		"CONTROL_NO", "TITLE", "PUBLISHER", "SERIES", "URL_NAXOS", "CID_NAXOS",
	}
	if diff := cmp.Diff(wantHeader, matched.Header); diff != "" {
		t.Errorf("matched header mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, matched.Rows, 1)

	deleted, err := records.ReadTable(paths.LeftOnly, "sierra")
	require.NoError(t, err)
	require.Equal(t, []string{"7"}, deleted.Keys())

	imported, err := records.ReadTable(paths.RightOnly, "naxos")
	require.NoError(t, err)
	require.Equal(t, 0, imported.Len())
}
