package marcxml

import (
	"fmt"
	"slices"
	"strings"
)

// EditOptions controls how vendor records are trimmed before export.
type EditOptions struct {
	// StripTags are data fields removed from every record.
	StripTags []string
	// URLFrom is replaced with URLTo in every 856$u.
	URLFrom string
	URLTo   string
}

// DefaultEditOptions drops contents (505) and performer (511) notes, which
// push long recordings past the MARC 21 record length limit, and points
// links at the library's portal.
func DefaultEditOptions() EditOptions {
	return EditOptions{
		StripTags: []string{"505", "511"},
		URLFrom:   "univportal",
		URLTo:     "nypl",
	}
}

// Edit returns edited copies of recs; the inputs are not changed.
func Edit(recs []Record, opts EditOptions) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		edited := Record{
			Leader:        r.Leader,
			ControlFields: slices.Clone(r.ControlFields),
			DataFields:    make([]DataField, 0, len(r.DataFields)),
		}
		for _, f := range r.DataFields {
			if slices.Contains(opts.StripTags, f.Tag) {
				continue
			}
			f.Subfields = slices.Clone(f.Subfields)
			if f.Tag == "856" && opts.URLFrom != "" {
				for i, sf := range f.Subfields {
					if sf.Code == "u" {
						f.Subfields[i].Value = strings.ReplaceAll(sf.Value, opts.URLFrom, opts.URLTo)
					}
				}
			}
			edited.DataFields = append(edited.DataFields, f)
		}
		out = append(out, edited)
	}
	return out
}

// VendorRowError reports a vendor record that cannot become a row.
type VendorRowError struct {
	Index  int
	Reason string
}

func (e *VendorRowError) Error() string {
	return fmt.Sprintf("vendor record %d: %s", e.Index, e.Reason)
}

// VendorRows flattens records into raw rows of CONTROL_NO, TITLE, PUBLISHER,
// SERIES and the 856$u values joined with delimiter. Records without exactly
// one 001 are skipped and reported.
func VendorRows(recs []Record, delimiter string) ([][]string, []error) {
	rows := make([][]string, 0, len(recs))
	var errs []error
	for i, r := range recs {
		ids := r.Control("001")
		if len(ids) != 1 || ids[0] == "" {
			errs = append(errs, &VendorRowError{Index: i + 1, Reason: fmt.Sprintf("has %d 001 fields, want 1", len(ids))})
			continue
		}

		publisher := r.First("264", "b")
		if publisher == "" {
			publisher = r.First("260", "b")
		}

		var urls []string
		for _, u := range r.Subfields("856", "u") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}

		rows = append(rows, []string{
			ids[0],
			trimISBD(r.First("245", "a")),
			trimISBD(publisher),
			trimISBD(r.First("490", "a")),
			strings.Join(urls, delimiter),
		})
	}
	return rows, errs
}

// trimISBD drops the trailing punctuation cataloging rules add before the next subfield.
func trimISBD(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), " /:;,="))
}
