// Package reconcile partitions two record tables by join key into matched,
// left-only and right-only outcomes.
package reconcile

import (
	"fmt"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

// Outcome is the set relationship of one join key between the two sources.
type Outcome int

const (
	Matched Outcome = iota
	LeftOnly
	RightOnly
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case LeftOnly:
		return "left_only"
	case RightOnly:
		return "right_only"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Pair is one row of the inner join.
type Pair struct {
	Left  records.Record
	Right records.Record
}

// Result holds the three disjoint outcome sets.
type Result struct {
	Left      records.Table // deduplicated left input, for layout
	Right     records.Table // deduplicated right input, for layout
	Matched   []Pair
	LeftOnly  records.Table
	RightOnly records.Table
}

// Reconcile deduplicates both sides and joins them on JoinKey.
//
// Every (left, right) combination sharing a key appears in Matched, ordered by
// left row then right row. Neither input is modified.
func Reconcile(left, right records.Table) Result {
	l := records.Dedupe(left)
	r := records.Dedupe(right)

	byKey := make(map[string][]int, len(r.Records))
	for i, rec := range r.Records {
		byKey[rec.JoinKey] = append(byKey[rec.JoinKey], i)
	}
	leftKeys := make(map[string]struct{}, len(l.Records))

	res := Result{
		Left:      l,
		Right:     r,
		Matched:   []Pair{},
		LeftOnly:  emptyLike(l),
		RightOnly: emptyLike(r),
	}

	for _, lrec := range l.Records {
		leftKeys[lrec.JoinKey] = struct{}{}
		idx, ok := byKey[lrec.JoinKey]
		if !ok {
			res.LeftOnly.Records = append(res.LeftOnly.Records, lrec)
			continue
		}
		for _, i := range idx {
			res.Matched = append(res.Matched, Pair{Left: lrec, Right: r.Records[i]})
		}
	}

	for _, rrec := range r.Records {
		if _, ok := leftKeys[rrec.JoinKey]; !ok {
			res.RightOnly.Records = append(res.RightOnly.Records, rrec)
		}
	}
	return res
}

func emptyLike(t records.Table) records.Table {
	return records.Table{
		Name:    t.Name,
		Attrs:   t.Attrs,
		KeyName: t.KeyName,
		Records: []records.Record{},
	}
}

// Outcomes maps every join key from either input to its outcome.
func (r Result) Outcomes() map[string]Outcome {
	out := make(map[string]Outcome)
	for _, p := range r.Matched {
		out[p.Left.JoinKey] = Matched
	}
	for _, rec := range r.LeftOnly.Records {
		out[rec.JoinKey] = LeftOnly
	}
	for _, rec := range r.RightOnly.Records {
		out[rec.JoinKey] = RightOnly
	}
	return out
}

// Counts returns the number of rows in each outcome set.
func (r Result) Counts() map[Outcome]int {
	return map[Outcome]int{
		Matched:   len(r.Matched),
		LeftOnly:  r.LeftOnly.Len(),
		RightOnly: r.RightOnly.Len(),
	}
}

// MatchedSheet lays the inner join out as one row per pair: the left table's
// columns followed by the right table's.
func (r Result) MatchedSheet() records.Sheet {
	header := append(r.Left.Header(), r.Right.Header()...)
	s := records.Sheet{Header: header, Rows: make([][]string, 0, len(r.Matched))}
	for _, p := range r.Matched {
		row := append(r.Left.Row(p.Left), r.Right.Row(p.Right)...)
		s.Rows = append(s.Rows, row)
	}
	return s
}
