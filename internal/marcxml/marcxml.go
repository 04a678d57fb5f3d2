// Package marcxml reads, edits and re-serializes the vendor's MARC/XML feed.
package marcxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Namespace is the MARC 21 slim schema namespace.
const Namespace = "http://www.loc.gov/MARC21/slim"

// Record is one MARC bibliographic record
type Record struct {
	Leader        string         `xml:"leader"`
	ControlFields []ControlField `xml:"controlfield"`
	DataFields    []DataField    `xml:"datafield"`
}

// ControlField is a 00X field
type ControlField struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:",chardata"`
}

// DataField is a variable data field with indicators and subfields
type DataField struct {
	Tag       string     `xml:"tag,attr"`
	Ind1      string     `xml:"ind1,attr"`
	Ind2      string     `xml:"ind2,attr"`
	Subfields []Subfield `xml:"subfield"`
}

// Subfield is one coded value inside a data field
type Subfield struct {
	Code  string `xml:"code,attr"`
	Value string `xml:",chardata"`
}

type collection struct {
	XMLName xml.Name `xml:"collection"`
	Xmlns   string   `xml:"xmlns,attr"`
	Records []Record `xml:"record"`
}

// Control returns the values of every control field with the given tag.
func (r Record) Control(tag string) []string {
	var out []string
	for _, f := range r.ControlFields {
		if f.Tag == tag {
			out = append(out, strings.TrimSpace(f.Value))
		}
	}
	return out
}

// Subfields returns every value of tag$code across repeated fields.
func (r Record) Subfields(tag, code string) []string {
	var out []string
	for _, f := range r.DataFields {
		if f.Tag != tag {
			continue
		}
		for _, sf := range f.Subfields {
			if sf.Code == code {
				out = append(out, sf.Value)
			}
		}
	}
	return out
}

// First returns the first tag$code value, or "".
func (r Record) First(tag, code string) string {
	if v := r.Subfields(tag, code); len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// Decode reads every record element from r, whether the document root is a
// collection or a single record.
func Decode(r io.Reader) ([]Record, error) {
	dec := xml.NewDecoder(r)
	var recs []Record
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse MARC/XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "record" {
			continue
		}
		var rec Record
		if err := dec.DecodeElement(&rec, &start); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", len(recs)+1, err)
		}
		recs = append(recs, rec)
	}
}

// ReadFile decodes every record in one MARC/XML file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Combine reads every .xml file in dir, in name order, into one record list.
func Combine(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []Record
	for _, name := range names {
		recs, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		slog.Debug("Read MARC/XML file", "file", name, "records", len(recs))
		all = append(all, recs...)
	}
	return all, nil
}

// Encode writes records as a MARC 21 slim collection document.
func Encode(w io.Writer, recs []Record) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(collection{Xmlns: Namespace, Records: recs}); err != nil {
		return fmt.Errorf("failed to encode MARC/XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes records to path as a MARC/XML collection.
func WriteFile(path string, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, recs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
