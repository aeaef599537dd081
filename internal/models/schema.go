package models

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaError reports a record whose label vector does not match the
// active label schema. It is never silently coerced — callers report it
// and skip the record.
type SchemaError struct {
	RecordID string
	Missing  []string // recognized labels absent from the record
	Extra    []string // unrecognized label keys present on the record
	Invalid  []string // labels carrying a value other than 0 or 1
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing labels [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unrecognized labels [%s]", strings.Join(e.Extra, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("non-binary values for [%s]", strings.Join(e.Invalid, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "schema mismatch")
	}
	return fmt.Sprintf("record %q: %s", e.RecordID, strings.Join(parts, "; "))
}

// ValidateLabels checks a label vector against the closed label set.
// Every recognized label must be present with a 0/1 value, and no
// unrecognized keys are allowed.
func ValidateLabels(recordID string, vector map[string]int, labels []string) error {
	recognized := make(map[string]bool, len(labels))
	for _, name := range labels {
		recognized[name] = true
	}

	schemaErr := &SchemaError{RecordID: recordID}
	for _, name := range labels {
		v, ok := vector[name]
		if !ok {
			schemaErr.Missing = append(schemaErr.Missing, name)
			continue
		}
		if v != 0 && v != 1 {
			schemaErr.Invalid = append(schemaErr.Invalid, name)
		}
	}
	for key := range vector {
		if !recognized[key] {
			schemaErr.Extra = append(schemaErr.Extra, key)
		}
	}
	sort.Strings(schemaErr.Missing)
	sort.Strings(schemaErr.Extra)
	sort.Strings(schemaErr.Invalid)

	if len(schemaErr.Missing) > 0 || len(schemaErr.Extra) > 0 || len(schemaErr.Invalid) > 0 {
		return schemaErr
	}
	return nil
}

// ValidateRecords validates every record in a set against the label schema
// and checks id uniqueness. The first violation is returned.
func ValidateRecords(records []Record, labels []string) error {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record with empty id (text %.40q)", r.Text)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate record id %q", r.ID)
		}
		seen[r.ID] = true
		if err := ValidateLabels(r.ID, r.Labels, labels); err != nil {
			return err
		}
	}
	return nil
}
