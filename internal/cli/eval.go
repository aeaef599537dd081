package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/classify"
	"github.com/mkalnins/labelctl/internal/models"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the classifier against the labeled snapshot",
	Long: `Re-classify every record of the current snapshot and compare the
predictions with the human labels. Mode "baseline" classifies with no
few-shot examples; "leave-one-out" gives each record every labeled
example except itself. Predictions are saved under the evaluations
directory for inspection.`,
	Run: runEval,
}

var evalMode string

func init() {
	evalCmd.Flags().StringVar(&evalMode, "mode", "baseline", "Evaluation mode (baseline, leave-one-out)")
}

func runEval(cmd *cobra.Command, args []string) {
	mode, err := classify.ParseEvalMode(evalMode)
	if err != nil {
		exitError("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := initContext()
	defer c.Close()

	records, meta, err := c.Snapshots.Latest()
	if err != nil {
		exitError("failed to load current snapshot: %v", err)
	}
	if meta == nil || len(records) == 0 {
		exitError("no labeled snapshot to evaluate against; fold a batch in first")
	}

	classifier, err := newClassifier(c.Config)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("Evaluating %s against %d records (%s)\n", classifier.Model(), len(records), mode)

	evaluator := &classify.Evaluator{
		Classifier:  classifier,
		Prompts:     c.Prompts,
		Labels:      c.Config.LabelNames(),
		MaxExamples: c.Config.Batch.MaxExamples,
		Logger:      slog.Default(),
	}

	result, runErr := evaluator.Run(ctx, records, mode)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		exitError("%v", runErr)
	}

	if len(result.Predictions) > 0 {
		if err := writePredictions(c.Config.EvaluationsPath(), mode, result.Predictions); err != nil {
			color.New(color.FgYellow).Printf("Warning: failed to save predictions: %v\n", err)
		}
	}

	fmt.Printf("\n%-30s %9s %9s %5s %5s %5s %5s %6s %6s %6s\n",
		"Label", "Correct", "Accuracy", "TP", "FP", "FN", "TN", "P", "R", "F1")
	for _, m := range result.PerLabel {
		fmt.Printf("%-30s %4d/%-4d %8.1f%% %5d %5d %5d %5d %6.2f %6.2f %6.2f\n",
			m.Label, m.Correct, m.Total, m.Accuracy(),
			m.TP, m.FP, m.FN, m.TN, m.Precision(), m.Recall(), m.F1())
	}

	green := color.New(color.FgGreen)
	green.Printf("\nOverall accuracy: %d/%d (%.1f%%)\n", result.Correct, result.Total, result.Accuracy())
	if result.Skipped > 0 {
		color.New(color.FgYellow).Printf("%d records skipped after classify failures\n", result.Skipped)
	}
	if errors.Is(runErr, context.Canceled) {
		color.New(color.FgYellow).Println("Interrupted; metrics cover the records evaluated so far")
	}
}

// writePredictions saves the raw predictions of an evaluation run, one file
// per mode, overwritten on each run.
func writePredictions(dir string, mode classify.EvalMode, predictions []models.Record) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := models.EncodeRecords(predictions)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, string(mode)+".json"), data, 0644)
}
