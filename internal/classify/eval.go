package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkalnins/labelctl/internal/models"
	"github.com/mkalnins/labelctl/internal/prompt"
)

// EvalMode selects how the system message is built during an accuracy run.
type EvalMode string

const (
	// EvalBaseline classifies with no few-shot examples.
	EvalBaseline EvalMode = "baseline"
	// EvalLeaveOneOut classifies each record with every labeled example
	// except the record itself, so a record never sees its own answer.
	EvalLeaveOneOut EvalMode = "leave-one-out"
)

// ParseEvalMode validates an evaluation mode name.
func ParseEvalMode(s string) (EvalMode, error) {
	switch EvalMode(s) {
	case EvalBaseline, EvalLeaveOneOut:
		return EvalMode(s), nil
	}
	return "", fmt.Errorf("unknown evaluation mode %q (baseline, leave-one-out)", s)
}

// LabelMetrics is the confusion matrix for one label over an accuracy run.
type LabelMetrics struct {
	Label   string
	Correct int
	Total   int
	TP      int
	FP      int
	FN      int
	TN      int
}

// Accuracy returns the percentage of correct predictions for the label.
func (m LabelMetrics) Accuracy() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Total) * 100
}

func (m LabelMetrics) Precision() float64 {
	if m.TP+m.FP == 0 {
		return 0
	}
	return float64(m.TP) / float64(m.TP+m.FP)
}

func (m LabelMetrics) Recall() float64 {
	if m.TP+m.FN == 0 {
		return 0
	}
	return float64(m.TP) / float64(m.TP+m.FN)
}

func (m LabelMetrics) F1() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// EvalResult summarizes an accuracy run. Metrics cover only records that
// were successfully re-classified; failures are counted in Skipped.
type EvalResult struct {
	Mode        EvalMode
	PerLabel    []LabelMetrics // schema order
	Correct     int
	Total       int
	Skipped     int
	Predictions []models.Record
}

// Accuracy returns the overall percentage of correct label predictions.
func (r *EvalResult) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total) * 100
}

// Evaluator re-classifies already-labeled records and scores the
// predictions against the human labels. Predictions pair with records by
// id, never by response order.
type Evaluator struct {
	Classifier  Classifier
	Prompts     *prompt.Builder
	Labels      []string
	MaxExamples int
	Logger      *slog.Logger
}

// Run evaluates every record. Per-record classify failures are logged and
// skipped; on cancellation the records finished so far are still scored
// and returned alongside the context error.
func (e *Evaluator) Run(ctx context.Context, records []models.Record, mode EvalMode) (*EvalResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := &EvalResult{Mode: mode}
	predicted := make(map[string]models.Record, len(records))
	baseline := e.Prompts.Baseline()

	var runErr error
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		system := baseline
		if mode == EvalLeaveOneOut {
			system = e.Prompts.LeaveOneOut(records, rec.ID, e.MaxExamples)
		}

		vector, err := e.Classifier.Classify(ctx, system, e.Prompts.User(rec.Text))
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			logger.Warn("skipping record after classify failure",
				"id", rec.ID, "position", i+1, "total", len(records), "error", err)
			result.Skipped++
			continue
		}

		p := models.Record{ID: rec.ID, Text: rec.Text, Labels: vector}
		predicted[rec.ID] = p
		result.Predictions = append(result.Predictions, p)
		logger.Info("evaluated record", "id", rec.ID, "position", i+1, "total", len(records))
	}

	for _, name := range e.Labels {
		m := LabelMetrics{Label: name}
		for _, rec := range records {
			p, ok := predicted[rec.ID]
			if !ok {
				continue
			}
			actual, pred := rec.Labels[name], p.Labels[name]
			switch {
			case actual == 1 && pred == 1:
				m.TP++
				m.Correct++
			case actual == 0 && pred == 0:
				m.TN++
				m.Correct++
			case actual == 0 && pred == 1:
				m.FP++
			default:
				m.FN++
			}
			m.Total++
		}
		result.Correct += m.Correct
		result.Total += m.Total
		result.PerLabel = append(result.PerLabel, m)
	}

	return result, runErr
}
