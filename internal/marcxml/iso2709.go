package marcxml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	fieldTerminator  = 0x1e
	recordTerminator = 0x1d
	subfieldDelim    = 0x1f

	leaderLen   = 24
	maxRecord   = 99999
	maxField    = 9999
	defaultLead = "00000njm a2200000 a 4500"
)

// RecordTooLongError reports a record that exceeds the 99999 byte MARC 21 limit.
type RecordTooLongError struct {
	Index  int
	Length int
}

func (e *RecordTooLongError) Error() string {
	return fmt.Sprintf("record %d is %d bytes, over the MARC 21 limit of %d", e.Index, e.Length, maxRecord)
}

// FieldTooLongError reports a field whose length does not fit the four digit
// directory entry.
type FieldTooLongError struct {
	Index  int
	Tag    string
	Length int
}

func (e *FieldTooLongError) Error() string {
	return fmt.Sprintf("record %d: field %s is %d bytes, over the MARC 21 limit of %d", e.Index, e.Tag, e.Length, maxField)
}

// WriteMARC21 serializes records in ISO 2709 transmission format. Records
// that cannot be encoded are left out and returned as skipped; err is set
// only when writing fails.
func WriteMARC21(w io.Writer, recs []Record) (skipped []error, err error) {
	bw := bufio.NewWriter(w)
	for i, r := range recs {
		data, err := MarshalMARC21(r)
		if err != nil {
			var rl *RecordTooLongError
			var fl *FieldTooLongError
			switch {
			case errors.As(err, &rl):
				rl.Index = i + 1
			case errors.As(err, &fl):
				fl.Index = i + 1
			default:
				err = fmt.Errorf("record %d: %w", i+1, err)
			}
			skipped = append(skipped, err)
			continue
		}
		if _, err := bw.Write(data); err != nil {
			return skipped, fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}
	return skipped, bw.Flush()
}

// WriteMARC21File writes records to path in ISO 2709 format.
func WriteMARC21File(path string, recs []Record) ([]error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	skipped, err := WriteMARC21(f, recs)
	if err != nil {
		f.Close()
		return skipped, err
	}
	if err := f.Close(); err != nil {
		return skipped, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return skipped, nil
}

// MarshalMARC21 encodes one record: leader, directory, then field data.
func MarshalMARC21(r Record) ([]byte, error) {
	var dir, data bytes.Buffer

	for _, f := range r.ControlFields {
		if len(f.Tag) != 3 {
			return nil, fmt.Errorf("invalid control field tag %q", f.Tag)
		}
	}
	for _, f := range r.DataFields {
		if len(f.Tag) != 3 {
			return nil, fmt.Errorf("invalid data field tag %q", f.Tag)
		}
	}

	addField := func(tag string, body []byte) error {
		if n := len(body) + 1; n > maxField {
			return &FieldTooLongError{Tag: tag, Length: n}
		}
		fmt.Fprintf(&dir, "%s%04d%05d", tag, len(body)+1, data.Len())
		data.Write(body)
		data.WriteByte(fieldTerminator)
		return nil
	}

	for _, f := range r.ControlFields {
		if err := addField(f.Tag, []byte(f.Value)); err != nil {
			return nil, err
		}
	}
	for _, f := range r.DataFields {
		var body bytes.Buffer
		body.WriteByte(indicator(f.Ind1))
		body.WriteByte(indicator(f.Ind2))
		for _, sf := range f.Subfields {
			body.WriteByte(subfieldDelim)
			body.WriteString(sf.Code)
			body.WriteString(sf.Value)
		}
		if err := addField(f.Tag, body.Bytes()); err != nil {
			return nil, err
		}
	}
	dir.WriteByte(fieldTerminator)

	base := leaderLen + dir.Len()
	total := base + data.Len() + 1
	if total > maxRecord {
		return nil, &RecordTooLongError{Length: total}
	}

	leader := []byte(defaultLead)
	if len(r.Leader) == leaderLen {
		leader = []byte(r.Leader)
	}
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	leader[9] = 'a'
	leader[10] = '2'
	leader[11] = '2'
	copy(leader[12:17], fmt.Sprintf("%05d", base))
	copy(leader[20:24], "4500")

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, dir.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, recordTerminator)
	return out, nil
}

func indicator(s string) byte {
	if s == "" {
		return ' '
	}
	return s[0]
}
