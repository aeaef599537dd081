package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkalnins/labelctl/internal/identity"
	"github.com/mkalnins/labelctl/internal/models"
)

// loadInputRecords reads candidate samples from a JSON record array, a CSV
// with a text column, or a plain text file with one sample per line. Ids
// are always recomputed from text; records whose text cannot be hashed are
// skipped and counted, and duplicate texts keep their first occurrence.
func loadInputRecords(path string) ([]models.Record, int, error) {
	texts, labels, err := readInputTexts(path)
	if err != nil {
		return nil, 0, err
	}

	records := make([]models.Record, 0, len(texts))
	seen := make(map[string]bool, len(texts))
	skipped := 0
	for i, text := range texts {
		id, err := identity.HashText(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping input line %d: %v\n", i+1, err)
			skipped++
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		rec := models.Record{ID: id, Text: text, Labels: map[string]int{}}
		if labels != nil {
			rec.Labels = labels[i]
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// readInputTexts returns the raw texts and, for JSON input only, any label
// vectors carried alongside them (index-aligned with texts).
func readInputTexts(path string) ([]string, []map[string]int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		records, err := models.DecodeRecords(data)
		if err != nil {
			return nil, nil, err
		}
		texts := make([]string, len(records))
		labels := make([]map[string]int, len(records))
		for i, r := range records {
			texts[i] = r.Text
			labels[i] = r.Labels
		}
		return texts, labels, nil
	case ".csv":
		texts, err := readCSVTexts(path)
		return texts, nil, err
	default:
		texts, err := readLineTexts(path)
		return texts, nil, err
	}
}

func readCSVTexts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	textCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "text") {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("%s has no text column", path)
	}

	var texts []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if textCol < len(rec) {
			texts = append(texts, rec[textCol])
		}
	}
	return texts, nil
}

func readLineTexts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var texts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		texts = append(texts, line)
	}
	return texts, nil
}
