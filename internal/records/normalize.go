package records

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const (
	// DefaultMarker is the query parameter that carries the vendor content id in a resource URL.
	DefaultMarker = "?cid="
	// DefaultDelimiter separates multiple URLs packed into one export field.
	DefaultDelimiter = ";"
)

// Schema describes the raw column layout of one source and how its rows become Records.
type Schema struct {
	Name string

	// Attrs names the attribute columns kept on each record and AttrColumns
	// gives the raw column index each one is read from.
	Attrs       []string
	AttrColumns []int

	URLColumn int

	// ExternalIDAttr, when set, names the attribute holding a legacy identifier
	// whose parenthetical prefix such as "(OCoLC)" is stripped.
	ExternalIDAttr string

	MinFields int
	Delimiter string
	Marker    string

	// HeaderRows is added to row numbers in errors so they match the source file.
	HeaderRows int
}

// SierraSchema is the library export layout: legacy OCLC number, bib id, URL(s).
func SierraSchema(marker, delimiter string) Schema {
	return Schema{
		Name:           "sierra",
		Attrs:          []string{"OCLC_NUMBER", "BIB_ID"},
		AttrColumns:    []int{0, 1},
		URLColumn:      2,
		ExternalIDAttr: "OCLC_NUMBER",
		MinFields:      3,
		Delimiter:      delimiter,
		Marker:         marker,
		HeaderRows:     1,
	}
}

// NaxosSchema is the layout of rows extracted from the vendor MARC/XML feed.
func NaxosSchema(marker, delimiter string) Schema {
	return Schema{
		Name:        "naxos",
		Attrs:       []string{"CONTROL_NO", "TITLE", "PUBLISHER", "SERIES"},
		AttrColumns: []int{0, 1, 2, 3},
		URLColumn:   4,
		MinFields:   5,
		Delimiter:   delimiter,
		Marker:      marker,
	}
}

// Table returns an empty table laid out for records produced by this schema.
func (s Schema) Table() Table {
	attrs := make([]string, len(s.Attrs))
	copy(attrs, s.Attrs)
	return NewTable(s.Name, attrs...)
}

func (s Schema) marker() string {
	if s.Marker == "" {
		return DefaultMarker
	}
	return s.Marker
}

func (s Schema) delimiter() string {
	if s.Delimiter == "" {
		return DefaultDelimiter
	}
	return s.Delimiter
}

// MalformedRowError reports a raw row that cannot be turned into a Record.
type MalformedRowError struct {
	Source string
	Row    int
	Key    string
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("malformed %s row %d (key %q): %s", e.Source, e.Row, e.Key, e.Reason)
	}
	return fmt.Sprintf("malformed %s row %d: %s", e.Source, e.Row, e.Reason)
}

// Normalize turns raw rows into records. Malformed rows are skipped and
// returned as *MalformedRowError values so the caller can warn and move on.
func Normalize(rows [][]string, schema Schema) ([]Record, []error) {
	var out []Record
	var errs []error
	for i, row := range rows {
		recs, err := NormalizeRow(row, schema)
		if err != nil {
			var mre *MalformedRowError
			if errors.As(err, &mre) {
				mre.Row = i + 1 + schema.HeaderRows
			}
			errs = append(errs, err)
			continue
		}
		out = append(out, recs...)
	}
	return out, errs
}

// NormalizeRow expands a single raw row into one record per URL carrying the
// link marker. A marked URL with an empty content id is skipped; the row is
// malformed only when no usable URL remains.
func NormalizeRow(row []string, schema Schema) ([]Record, error) {
	if len(row) < schema.MinFields || schema.URLColumn >= len(row) {
		return nil, &MalformedRowError{
			Source: schema.Name,
			Key:    rowKey(row, schema),
			Reason: fmt.Sprintf("row has %d fields, want at least %d", len(row), max(schema.MinFields, schema.URLColumn+1)),
		}
	}

	attrs := make([]string, len(schema.Attrs))
	for i, col := range schema.AttrColumns {
		if col < len(row) {
			attrs[i] = row[col]
		}
		if schema.Attrs[i] == schema.ExternalIDAttr {
			attrs[i] = StripIdentifierPrefix(attrs[i])
		}
	}

	marker := schema.marker()
	field := row[schema.URLColumn]
	if !strings.Contains(field, marker) {
		return nil, &MalformedRowError{
			Source: schema.Name,
			Key:    rowKey(row, schema),
			Reason: fmt.Sprintf("no URL containing %q", marker),
		}
	}

	var urls []string
	if strings.Contains(field, schema.delimiter()) {
		for _, part := range strings.Split(field, schema.delimiter()) {
			if strings.Contains(part, marker) {
				urls = append(urls, strings.TrimSpace(part))
			}
		}
	} else {
		urls = []string{strings.TrimSpace(field)}
	}

	out := make([]Record, 0, len(urls))
	var skipped []error
	for _, u := range urls {
		key, err := JoinKey(u, marker)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		recAttrs := make([]string, len(attrs))
		copy(recAttrs, attrs)
		out = append(out, Record{JoinKey: key, URL: u, Attrs: recAttrs})
	}
	if len(out) == 0 {
		return nil, &MalformedRowError{Source: schema.Name, Key: rowKey(row, schema), Reason: errors.Join(skipped...).Error()}
	}
	for _, err := range skipped {
		slog.Warn("Skipping URL without a content id", "source", schema.Name, "key", out[0].JoinKey, "error", err)
	}
	return out, nil
}

// rowKey identifies a raw row in errors by its first non-empty attribute,
// the legacy identifier for both sources.
func rowKey(row []string, schema Schema) string {
	for i, col := range schema.AttrColumns {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if schema.Attrs[i] == schema.ExternalIDAttr {
			v = StripIdentifierPrefix(v)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

// JoinKey extracts the content id following the marker in a URL.
func JoinKey(url, marker string) (string, error) {
	_, after, found := strings.Cut(url, marker)
	if !found {
		return "", fmt.Errorf("URL %q has no %q", url, marker)
	}
	key := strings.TrimSpace(after)
	if key == "" {
		return "", fmt.Errorf("URL %q has an empty content id", url)
	}
	return key, nil
}

var (
	parenPrefix = regexp.MustCompile(`^\s*\([^)]*\)\s*`)
	oclcPrefix  = regexp.MustCompile(`^(ocm|ocn|on)(\d+)$`)
)

// StripIdentifierPrefix removes a leading parenthetical prefix such as "(OCoLC)"
// and the ocm/ocn/on letter prefixes OCLC numbers carry in older records.
func StripIdentifierPrefix(id string) string {
	id = parenPrefix.ReplaceAllString(strings.TrimSpace(id), "")
	id = strings.TrimSpace(id)
	if m := oclcPrefix.FindStringSubmatch(id); m != nil {
		return m[2]
	}
	return id
}
