package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkalnins/labelctl/internal/models"
	"github.com/mkalnins/labelctl/internal/prompt"
)

// Runner classifies a record set in sub-batches, flushing each completed
// sub-batch to durable storage so a cancelled run keeps its finished work.
// Per-record failures are logged and skipped, never fatal to the run.
type Runner struct {
	Classifier Classifier
	Prompts    *prompt.Builder
	// Examples feeds the few-shot system message, capped at MaxExamples.
	Examples    []models.Record
	MaxExamples int
	// SubBatchSize is how many records are classified between flushes.
	SubBatchSize int
	// Flush persists one completed sub-batch. It must succeed for the run
	// to continue; part numbers start at 1.
	Flush  func(part int, records []models.Record) error
	Logger *slog.Logger
}

// Result summarizes a bulk classification run.
type Result struct {
	Classified []models.Record
	Skipped    int
	Parts      int
}

// Run classifies every input record. Each result is attached to its
// originating record by id, not by response order. On cancellation the
// pending sub-batch is flushed before the context error is returned.
func (r *Runner) Run(ctx context.Context, records []models.Record) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := r.SubBatchSize
	if size <= 0 {
		size = 50
	}

	system := r.Prompts.System(r.Examples, r.MaxExamples)
	result := &Result{}
	pending := make([]models.Record, 0, size)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		result.Parts++
		if r.Flush != nil {
			if err := r.Flush(result.Parts, pending); err != nil {
				return fmt.Errorf("flush sub-batch %d: %w", result.Parts, err)
			}
		}
		result.Classified = append(result.Classified, pending...)
		pending = pending[:0]
		return nil
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			// Keep what finished before giving up
			if ferr := flush(); ferr != nil {
				return result, ferr
			}
			return result, err
		}

		vector, err := r.Classifier.Classify(ctx, system, r.Prompts.User(rec.Text))
		if err != nil {
			if ctx.Err() != nil {
				if ferr := flush(); ferr != nil {
					return result, ferr
				}
				return result, ctx.Err()
			}
			logger.Warn("skipping record after classify failure",
				"id", rec.ID, "position", i+1, "total", len(records), "error", err)
			result.Skipped++
			continue
		}

		pending = append(pending, models.Record{ID: rec.ID, Text: rec.Text, Labels: vector})
		logger.Info("classified record", "id", rec.ID, "position", i+1, "total", len(records))

		if len(pending) >= size {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}
