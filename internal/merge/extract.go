package merge

import (
	"fmt"

	"github.com/mkalnins/labelctl/internal/batch"
	"github.com/mkalnins/labelctl/internal/export"
	"github.com/mkalnins/labelctl/internal/models"
)

// ChangeSet is the outcome of diffing an edited export against the record
// set it was derived from. Changes carry the original text verbatim — ids
// are derived from text, so a text edit in the sheet can never be trusted.
type ChangeSet struct {
	Changes        []models.Record
	SkippedUnknown int // rows whose id is absent from the original set
	TextEdited     int // rows whose text cell was modified (flagged, ignored)
}

// Diff compares edited rows against the original records by id and keeps
// only the rows whose label vector differs. An unedited export yields an
// empty change set.
func Diff(original []models.Record, rows []export.Row, labels []string) *ChangeSet {
	byID := make(map[string]models.Record, len(original))
	for _, r := range original {
		byID[r.ID] = r
	}

	cs := &ChangeSet{}
	for _, row := range rows {
		orig, ok := byID[row.ID]
		if !ok {
			// Cannot reconcile an edit to an unknown record; fabricating
			// one from spreadsheet-only data would desync id and text
			cs.SkippedUnknown++
			continue
		}
		if row.Text != "" && row.Text != orig.Text {
			cs.TextEdited++
		}

		changed := models.Record{
			ID:     orig.ID,
			Text:   orig.Text,
			Labels: make(map[string]int, len(labels)),
		}
		differs := false
		for _, name := range labels {
			changed.Labels[name] = row.Labels[name]
			if row.Labels[name] != orig.Labels[name] {
				differs = true
			}
		}
		if differs {
			cs.Changes = append(cs.Changes, changed)
		}
	}

	return cs
}

// ExtractChanges reads an edited CSV export, diffs it against the current
// snapshot, and packages any changes as a new correction batch. The
// returned batch meta is nil when nothing changed. With fold set, the
// change batch is immediately folded in.
func (e *Engine) ExtractChanges(csvPath string, fold bool) (*ChangeSet, *models.BatchMeta, *FoldResult, error) {
	original, _, err := e.Snapshots.Latest()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load current snapshot: %w", err)
	}

	rows, err := export.ReadCSV(csvPath, e.Labels)
	if err != nil {
		return nil, nil, nil, err
	}

	cs := Diff(original, rows, e.Labels)
	if e.Logger != nil && cs.TextEdited > 0 {
		e.Logger.Warn("ignoring edited text cells; record text is fixed by its id",
			"rows", cs.TextEdited)
	}
	if len(cs.Changes) == 0 {
		return cs, nil, nil, nil
	}

	meta, err := e.Batches.Record(cs.Changes, batch.Meta{Strategy: batch.StrategyEdits})
	if err != nil {
		return cs, nil, nil, fmt.Errorf("package changes: %w", err)
	}

	if !fold {
		return cs, meta, nil, nil
	}

	result, err := e.FoldIn(meta.Name)
	if err != nil {
		return cs, meta, nil, err
	}
	return cs, meta, result, nil
}
