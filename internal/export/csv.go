// Package export projects label state to and from external editing
// formats: a CSV round-trip for human review and the training-example
// JSONL transcript.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/mkalnins/labelctl/internal/models"
)

// Options controls CSV export layout.
type Options struct {
	IncludeLength bool
	SortByLength  bool
	IncludeSource bool
	Sources       map[string]models.Source // record id → provenance, defaults to model
}

// WriteCSV renders records as one row each: id, text, one column per label
// in schema order, then any derived columns. The input slice is not
// modified.
func WriteCSV(path string, records []models.Record, labels []string, opts Options) error {
	ordered := make([]models.Record, len(records))
	copy(ordered, records)
	if opts.SortByLength {
		sort.SliceStable(ordered, func(i, j int) bool {
			return len([]rune(ordered[i].Text)) < len([]rune(ordered[j].Text))
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"id", "text"}, labels...)
	if opts.IncludeLength {
		header = append(header, "text_length")
	}
	if opts.IncludeSource {
		header = append(header, "source")
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for _, r := range ordered {
		row := make([]string, 0, len(header))
		row = append(row, r.ID, r.Text)
		for _, name := range labels {
			row = append(row, strconv.Itoa(r.Labels[name]))
		}
		if opts.IncludeLength {
			row = append(row, strconv.Itoa(len([]rune(r.Text))))
		}
		if opts.IncludeSource {
			source := models.SourceModel
			if s, ok := opts.Sources[r.ID]; ok {
				source = s
			}
			row = append(row, string(source))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write export row %s: %w", r.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return f.Close()
}

// Row is one imported spreadsheet row. Reconciliation keys on ID, never
// on row position.
type Row struct {
	ID     string
	Text   string
	Labels map[string]int
}

// ReadCSV parses an edited export. Missing label columns default to 0 for
// every row; non-numeric label cells are treated as 0; columns outside the
// schema are ignored.
func ReadCSV(path string, labels []string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // editors drop trailing empty cells

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	idCol, ok := columns["id"]
	if !ok {
		return nil, fmt.Errorf("export has no id column")
	}
	textCol, hasText := columns["text"]

	var rows []Row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("export line %d: %w", line, err)
		}
		if idCol >= len(rec) || rec[idCol] == "" {
			continue
		}

		row := Row{ID: rec[idCol], Labels: make(map[string]int, len(labels))}
		if hasText && textCol < len(rec) {
			row.Text = rec[textCol]
		}
		for _, name := range labels {
			row.Labels[name] = cellValue(rec, columns, name)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// cellValue reads a binary label cell, defaulting absent or non-numeric
// cells to 0. Any positive value counts as 1.
func cellValue(rec []string, columns map[string]int, name string) int {
	col, ok := columns[name]
	if !ok || col >= len(rec) {
		return 0
	}
	v, err := strconv.Atoi(rec[col])
	if err != nil || v <= 0 {
		return 0
	}
	return 1
}
