// Package models defines the core data types for label state: records,
// snapshot and batch manifests, and the label schema validation rules.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Source marks where a record's label vector came from.
type Source string

const (
	// SourceModel marks labels produced by the classifier.
	SourceModel Source = "model"
	// SourceManual marks labels confirmed or corrected by a human.
	SourceManual Source = "manual"
	// SourcePreviouslyManual marks manual labels that a later bulk run
	// re-classified.
	SourcePreviouslyManual Source = "previously_manual"
)

// Record is one labeled text sample. ID is derived from Text, so the two
// never diverge; Labels holds a 0/1 value for every name in the schema.
type Record struct {
	ID     string
	Text   string
	Labels map[string]int
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	labels := make(map[string]int, len(r.Labels))
	for k, v := range r.Labels {
		labels[k] = v
	}
	return Record{ID: r.ID, Text: r.Text, Labels: labels}
}

// LabelsEqual reports whether both records carry the same value for every
// schema label. Keys outside the schema are ignored.
func (r Record) LabelsEqual(other Record, labels []string) bool {
	for _, name := range labels {
		if r.Labels[name] != other.Labels[name] {
			return false
		}
	}
	return true
}

// MarshalJSON renders the record flattened: id and text first, then one
// key per label in sorted order. Non-ASCII text is written verbatim.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"id":`)
	if err := encodeJSONString(&buf, r.ID); err != nil {
		return nil, err
	}
	buf.WriteString(`,"text":`)
	if err := encodeJSONString(&buf, r.Text); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(r.Labels))
	for name := range r.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buf.WriteByte(',')
		if err := encodeJSONString(&buf, name); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, ":%d", r.Labels[name])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flattened form: every key other than id and
// text is a label value.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Labels = make(map[string]int, len(raw))
	for key, value := range raw {
		switch key {
		case "id":
			if err := json.Unmarshal(value, &r.ID); err != nil {
				return fmt.Errorf("record id: %w", err)
			}
		case "text":
			if err := json.Unmarshal(value, &r.Text); err != nil {
				return fmt.Errorf("record text: %w", err)
			}
		default:
			var v int
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("record label %q: %w", key, err)
			}
			r.Labels[key] = v
		}
	}
	return nil
}

// EncodeRecords renders records as an indented JSON array with HTML
// escaping disabled, so non-Latin text survives a round-trip readably.
// A nil slice encodes as an empty array.
func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecords parses a JSON array of flattened records.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// encodeJSONString writes s as a JSON string without HTML escaping and
// without the trailing newline json.Encoder appends.
func encodeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b := buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		buf.Truncate(len(b) - 1)
	}
	return nil
}
