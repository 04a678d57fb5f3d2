package records

import (
	"strings"
)

// Record is one normalized row from either source, keyed by the vendor content id.
type Record struct {
	JoinKey string
	URL     string
	Attrs   []string // values in Table.Attrs order
}

// Table is a named collection of records sharing one attribute layout
type Table struct {
	Name    string   `json:"name"`
	Attrs   []string `json:"attrs"`
	KeyName string   `json:"key_name,omitempty"` // overrides the CID_<NAME> header
	Records []Record `json:"records"`
}

// NewTable creates an empty table with the given attribute columns
func NewTable(name string, attrs ...string) Table {
	return Table{
		Name:    name,
		Attrs:   attrs,
		Records: []Record{},
	}
}

// URLColumn is the header used for a table's URL column, e.g. URL_SIERRA
func (t Table) URLColumn() string {
	return "URL_" + strings.ToUpper(t.Name)
}

// KeyColumn is the header used for a table's join key column, e.g. CID_SIERRA
func (t Table) KeyColumn() string {
	if t.KeyName != "" {
		return t.KeyName
	}
	return "CID_" + strings.ToUpper(t.Name)
}

// Header returns the CSV header: attributes, then URL, then join key.
func (t Table) Header() []string {
	header := make([]string, 0, len(t.Attrs)+2)
	header = append(header, t.Attrs...)
	return append(header, t.URLColumn(), t.KeyColumn())
}

// Row flattens a record into the column order given by Header.
func (t Table) Row(r Record) []string {
	row := make([]string, 0, len(t.Attrs)+2)
	for i := range t.Attrs {
		if i < len(r.Attrs) {
			row = append(row, r.Attrs[i])
		} else {
			row = append(row, "")
		}
	}
	return append(row, r.URL, r.JoinKey)
}

// Attr returns the named attribute of a record, or "" when the table has no such column.
func (t Table) Attr(r Record, name string) string {
	for i, a := range t.Attrs {
		if a == name && i < len(r.Attrs) {
			return r.Attrs[i]
		}
	}
	return ""
}

// Len returns the number of records in the table
func (t Table) Len() int {
	return len(t.Records)
}

// Keys returns the distinct join keys in first-seen order.
func (t Table) Keys() []string {
	seen := make(map[string]struct{}, len(t.Records))
	keys := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		if _, ok := seen[r.JoinKey]; ok {
			continue
		}
		seen[r.JoinKey] = struct{}{}
		keys = append(keys, r.JoinKey)
	}
	return keys
}

// identity is the full-row equality key used for de-duplication.
func (r Record) identity() string {
	var b strings.Builder
	b.WriteString(r.JoinKey)
	b.WriteByte(0x1f)
	b.WriteString(r.URL)
	for _, a := range r.Attrs {
		b.WriteByte(0x1f)
		b.WriteString(a)
	}
	return b.String()
}

// Dedupe drops exact full-row duplicates, keeping the first occurrence.
// The input table is left untouched.
func Dedupe(t Table) Table {
	out := Table{
		Name:    t.Name,
		Attrs:   t.Attrs,
		KeyName: t.KeyName,
		Records: make([]Record, 0, len(t.Records)),
	}
	seen := make(map[string]struct{}, len(t.Records))
	for _, r := range t.Records {
		id := r.identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out.Records = append(out.Records, r)
	}
	return out
}

// Rekey returns a copy of the table keyed on the named attribute instead of the content id.
// The attribute moves into the key column and the old key becomes an ordinary attribute.
// Records whose attribute is empty are dropped, since an empty key can never join.
func Rekey(t Table, attr string) Table {
	idx := -1
	for i, a := range t.Attrs {
		if a == attr {
			idx = i
			break
		}
	}
	attrs := make([]string, 0, len(t.Attrs))
	for i, a := range t.Attrs {
		if i != idx {
			attrs = append(attrs, a)
		}
	}
	attrs = append(attrs, t.KeyColumn())

	out := Table{
		Name:    t.Name,
		Attrs:   attrs,
		KeyName: attr,
		Records: make([]Record, 0, len(t.Records)),
	}
	if idx < 0 {
		return out
	}
	for _, r := range t.Records {
		if idx >= len(r.Attrs) {
			continue
		}
		key := strings.TrimSpace(r.Attrs[idx])
		if key == "" {
			continue
		}
		values := make([]string, 0, len(attrs))
		for i, v := range r.Attrs {
			if i != idx {
				values = append(values, v)
			}
		}
		values = append(values, r.JoinKey)
		out.Records = append(out.Records, Record{JoinKey: key, URL: r.URL, Attrs: values})
	}
	return out
}
