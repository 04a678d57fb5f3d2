package worldcat

import (
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/records"
)

// Shape says how many identifiers a resolution settled on.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeSingle
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeList:
		return "list"
	default:
		return "none"
	}
}

// ListSeparator joins list-valued identifiers and sources in a CSV cell.
const ListSeparator = "|"

// Result columns appended to a table by a search.
const (
	ColumnRecordCount = "NUMBER_OF_RECORDS"
	ColumnIdentifier  = "OCLC_NUMBER"
	ColumnSource      = "OCLC_SOURCE"
	ColumnMatch       = "OCLC_MATCH"
)

// Columns lists the result columns in the order Fields returns them.
var Columns = []string{ColumnRecordCount, ColumnIdentifier, ColumnSource, ColumnMatch}

// Resolution is the outcome of disambiguating one candidate set.
type Resolution struct {
	RecordCount int
	Identifiers []string
	Sources     []string
	Shape       Shape

	// MatchedKnown is nil when no known identifier was supplied.
	MatchedKnown *bool
}

// Fields renders the resolution as CSV cells in Columns order.
func (r Resolution) Fields() []string {
	match := ""
	if r.MatchedKnown != nil {
		match = strconv.FormatBool(*r.MatchedKnown)
	}
	return []string{
		strconv.Itoa(r.RecordCount),
		strings.Join(r.Identifiers, ListSeparator),
		strings.Join(r.Sources, ListSeparator),
		match,
	}
}

// Policy holds the knobs of the ranking: whose records count as the vendor's
// own and which cataloging language is preferred.
type Policy struct {
	Agency   string
	Language string
}

// DefaultPolicy prefers English records cataloged by Naxos.
var DefaultPolicy = Policy{Agency: "NAXOS", Language: "eng"}

// Resolve applies DefaultPolicy. An empty known means no legacy number was supplied.
func Resolve(set CandidateSet, known string) Resolution {
	return DefaultPolicy.Resolve(set, known)
}

// Resolve picks zero, one or many identifiers from set:
//
//  1. no records: nothing
//  2. exactly one record: that record, whatever it is
//  3. the known identifier is among the candidates: that candidate
//  4. otherwise the first non-empty tier of preferred-language candidates:
//     own agency, then full level, then the rest. A tier of one is a single
//     answer; a larger tier is returned whole as a list.
//
// If no candidate is in the preferred language the full list is returned.
func (p Policy) Resolve(set CandidateSet, known string) Resolution {
	known = records.StripIdentifierPrefix(known)
	res := Resolution{RecordCount: set.RecordCount}

	var noMatch *bool
	if known != "" {
		noMatch = boolPtr(false)
	}

	if set.RecordCount == 0 || len(set.Candidates) == 0 {
		res.Shape = ShapeNone
		res.MatchedKnown = noMatch
		return res
	}

	if set.RecordCount == 1 {
		c := set.Candidates[0]
		res.pick(c)
		if known != "" {
			res.MatchedKnown = boolPtr(records.StripIdentifierPrefix(c.Identifier) == known)
		}
		return res
	}

	if known != "" {
		for _, c := range set.Candidates {
			if records.StripIdentifierPrefix(c.Identifier) == known {
				res.pick(c)
				res.MatchedKnown = boolPtr(true)
				return res
			}
		}
	}

	res.MatchedKnown = noMatch

	var own, full, other []Candidate
	for _, c := range set.Candidates {
		if c.Language != p.Language {
			continue
		}
		switch {
		case strings.EqualFold(c.Agency, p.Agency):
			own = append(own, c)
		case isFullLevel(c.Level):
			full = append(full, c)
		default:
			other = append(other, c)
		}
	}

	for _, tier := range [][]Candidate{own, full, other} {
		switch len(tier) {
		case 0:
			continue
		case 1:
			res.pick(tier[0])
		default:
			res.list(tier)
		}
		return res
	}

	res.list(set.Candidates)
	return res
}

func (r *Resolution) pick(c Candidate) {
	r.Shape = ShapeSingle
	r.Identifiers = []string{c.Identifier}
	r.Sources = []string{c.Agency}
}

func (r *Resolution) list(cs []Candidate) {
	r.Shape = ShapeList
	r.Identifiers = make([]string, len(cs))
	r.Sources = make([]string, len(cs))
	for i, c := range cs {
		r.Identifiers[i] = c.Identifier
		r.Sources[i] = c.Agency
	}
}

// isFullLevel reports whether an encoding level denotes a full record:
// blank or "1" in the WorldCat encoding level scheme.
func isFullLevel(level string) bool {
	l := strings.TrimSpace(level)
	return l == "" || l == "1"
}

func boolPtr(b bool) *bool {
	return &b
}
