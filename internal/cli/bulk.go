package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/batch"
	"github.com/mkalnins/labelctl/internal/classify"
	"github.com/mkalnins/labelctl/internal/models"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <input-file>",
	Short: "Classify a whole record set in sub-batches",
	Long: `Classify every record in an input file, flushing each completed
sub-batch as a durable batch artifact so an interrupted run keeps its
finished work. Already-labeled records are skipped unless
--include-labeled is set.`,
	Args: cobra.ExactArgs(1),
	Run:  runBulk,
}

var (
	bulkSubBatch       int
	bulkIncludeLabeled bool
)

func init() {
	bulkCmd.Flags().IntVar(&bulkSubBatch, "sub-batch-size", 50, "Records classified between flushes")
	bulkCmd.Flags().BoolVar(&bulkIncludeLabeled, "include-labeled", false, "Re-classify records already in the snapshot")
}

func runBulk(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := initContext()
	defer c.Close()

	records, _, err := loadInputRecords(args[0])
	if err != nil {
		exitError("failed to read input: %v", err)
	}

	if !bulkIncludeLabeled {
		labeled, err := c.Snapshots.LabeledIDs()
		if err != nil {
			exitError("failed to load labeled ids: %v", err)
		}
		unlabeled := records[:0]
		for _, r := range records {
			if !labeled[r.ID] {
				unlabeled = append(unlabeled, r)
			}
		}
		records = unlabeled
	}
	if len(records) == 0 {
		fmt.Println("Nothing to classify")
		return
	}

	master, _, err := c.Snapshots.Latest()
	if err != nil {
		exitError("failed to load current snapshot: %v", err)
	}
	classifier, err := newClassifier(c.Config)
	if err != nil {
		exitError("%v", err)
	}

	examples := len(master)
	if examples > c.Config.Batch.MaxExamples {
		examples = c.Config.Batch.MaxExamples
	}

	runner := &classify.Runner{
		Classifier:   classifier,
		Prompts:      c.Prompts,
		Examples:     master,
		MaxExamples:  c.Config.Batch.MaxExamples,
		SubBatchSize: bulkSubBatch,
		Logger:       slog.Default(),
		Flush: func(part int, recs []models.Record) error {
			meta, err := c.Batches.Record(recs, batch.Meta{
				Strategy:     batch.StrategyBulk,
				ExampleCount: examples,
				Model:        classifier.Model(),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Flushed part %d as %s\n", part, meta.Name)
			return nil
		},
	}

	result, err := runner.Run(ctx, records)
	if err != nil && !errors.Is(err, context.Canceled) {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Classified %d records in %d parts", len(result.Classified), result.Parts)
	if result.Skipped > 0 {
		fmt.Printf(", %d skipped", result.Skipped)
	}
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		color.New(color.FgYellow).Println("Interrupted; completed sub-batches were kept")
	}
}
