// Package merge folds correction batches into the master snapshot and
// recovers correction batches from human-edited exports. Merging is
// last-write-wins per record id; every overwritten label value is recorded
// in the audit log, so an out-of-order fold leaves evidence even though
// the merge itself does not reject it.
package merge

import (
	"fmt"
	"log/slog"

	"github.com/mkalnins/labelctl/internal/batch"
	"github.com/mkalnins/labelctl/internal/export"
	"github.com/mkalnins/labelctl/internal/models"
	"github.com/mkalnins/labelctl/internal/prompt"
	"github.com/mkalnins/labelctl/internal/snapshot"
	"github.com/mkalnins/labelctl/internal/store"
)

// Engine coordinates fold-in and extract-changes over the snapshot store,
// batch tracker, and sidecar index.
type Engine struct {
	Snapshots *snapshot.Store
	Batches   *batch.Tracker
	Index     *store.Store
	Labels    []string
	Prompts   *prompt.Builder
	// TrainingPath is the training-example JSONL regenerated on every fold.
	TrainingPath string
	MaxExamples  int
	Logger       *slog.Logger
}

// FoldResult summarizes one fold-in.
type FoldResult struct {
	Snapshot   *models.SnapshotMeta
	BatchName  string
	Added      int
	Updated    int
	Unchanged  int
	Overwrites int
}

// FoldIn merges one batch into the current snapshot and makes the merged
// result canonical. Merge is by id with the incoming batch winning;
// snapshot order is preserved and new ids append in batch order, so the
// result never contains a duplicate id. Folding the same batch twice
// produces identical snapshot content.
func (e *Engine) FoldIn(batchName string) (*FoldResult, error) {
	master, _, err := e.Snapshots.Latest()
	if err != nil {
		return nil, fmt.Errorf("load current snapshot: %w", err)
	}

	incoming, err := e.Batches.Load(batchName)
	if err != nil {
		return nil, err
	}

	merged, overwrites, result := mergeByID(master, incoming, e.Labels, batchName)

	// The new snapshot must be durable before anything else changes;
	// Write deletes the superseded snapshot only after the rename lands.
	meta, err := e.Snapshots.Write(merged)
	if err != nil {
		return nil, err
	}
	result.Snapshot = meta
	result.BatchName = batchName

	if err := e.Index.RecordOverwrites(overwrites); err != nil {
		return nil, fmt.Errorf("record overwrite audit: %w", err)
	}
	if e.Logger != nil {
		for _, ow := range overwrites {
			e.Logger.Info("label overwritten",
				"id", ow.RecordID, "label", ow.Label,
				"old", ow.OldValue, "new", ow.NewValue, "batch", ow.BatchName)
		}
	}

	if err := e.Batches.MarkFolded(batchName, meta.CreatedAt); err != nil {
		return nil, fmt.Errorf("mark batch folded: %w", err)
	}

	if err := e.regenerateTraining(merged); err != nil {
		return nil, err
	}

	return result, nil
}

// FoldInAll folds every unfolded batch in manifest creation order,
// oldest first, so later corrections win over earlier ones.
func (e *Engine) FoldInAll() ([]*FoldResult, error) {
	metas, err := e.Batches.List(true)
	if err != nil {
		return nil, err
	}

	var results []*FoldResult
	for _, meta := range metas {
		result, err := e.FoldIn(meta.Name)
		if err != nil {
			return results, fmt.Errorf("fold %s: %w", meta.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// mergeByID performs the last-write-wins merge. The returned audit entries
// cover exactly the label values that changed on existing records.
func mergeByID(master, incoming []models.Record, labels []string, batchName string) ([]models.Record, []*models.Overwrite, *FoldResult) {
	merged := make([]models.Record, len(master))
	position := make(map[string]int, len(master))
	for i, r := range master {
		merged[i] = r
		position[r.ID] = i
	}

	result := &FoldResult{}
	var overwrites []*models.Overwrite

	for _, in := range incoming {
		i, exists := position[in.ID]
		if !exists {
			position[in.ID] = len(merged)
			merged = append(merged, in.Clone())
			result.Added++
			continue
		}

		old := merged[i]
		if old.LabelsEqual(in, labels) {
			result.Unchanged++
			continue
		}
		for _, name := range labels {
			if old.Labels[name] != in.Labels[name] {
				overwrites = append(overwrites, &models.Overwrite{
					RecordID:  in.ID,
					Label:     name,
					OldValue:  old.Labels[name],
					NewValue:  in.Labels[name],
					BatchName: batchName,
				})
			}
		}
		merged[i] = in.Clone()
		result.Updated++
	}

	result.Overwrites = len(overwrites)
	return merged, overwrites, result
}

// regenerateTraining rewrites the training JSONL from the full merged set.
func (e *Engine) regenerateTraining(records []models.Record) error {
	if e.TrainingPath == "" {
		return nil
	}
	if err := export.WriteTraining(e.TrainingPath, records, e.Labels, e.Prompts, e.MaxExamples); err != nil {
		return fmt.Errorf("regenerate training export: %w", err)
	}
	return nil
}
