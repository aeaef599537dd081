package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/batch"
	"github.com/mkalnins/labelctl/internal/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch <input-file>",
	Short: "Select and classify a correction batch",
	Long: `Select unlabeled records from an input file, classify them with the
configured model, and record the predictions as a batch awaiting human
correction. Input may be a JSON record array, a CSV with a text column,
or a plain text file with one sample per line.`,
	Args: cobra.ExactArgs(1),
	Run:  runBatch,
}

var (
	batchSize     int
	batchStrategy string
	batchSeed     int64
)

func init() {
	batchCmd.Flags().IntVar(&batchSize, "size", 0, "Batch size (default from config)")
	batchCmd.Flags().StringVar(&batchStrategy, "strategy", "", "Selection strategy: longest, shortest, medium, random (default from config)")
	batchCmd.Flags().Int64Var(&batchSeed, "seed", 0, "Random strategy seed (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	records, _, err := loadInputRecords(args[0])
	if err != nil {
		exitError("failed to read input: %v", err)
	}

	size := batchSize
	if size <= 0 {
		size = c.Config.Batch.Size
	}
	strategyName := batchStrategy
	if strategyName == "" {
		strategyName = c.Config.Batch.Strategy
	}
	strategy, err := batch.ParseStrategy(strategyName)
	if err != nil {
		exitError("%v", err)
	}
	seed := batchSeed
	if seed == 0 {
		seed = c.Config.Batch.RandomSeed
	}

	labeled, err := c.Snapshots.LabeledIDs()
	if err != nil {
		exitError("failed to load labeled ids: %v", err)
	}

	selected, err := batch.Select(records, labeled, size, strategy, seed)
	if err != nil {
		exitError("%v", err)
	}
	if len(selected) == 0 {
		fmt.Println("No unlabeled records to select")
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

	system := c.Prompts.System(master, c.Config.Batch.MaxExamples)
	classified := make([]models.Record, 0, len(selected))
	skipped := 0
	for i, rec := range selected {
		vector, err := classifier.Classify(ctx, system, c.Prompts.User(rec.Text))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s (%d/%d): %v\n", rec.ID, i+1, len(selected), err)
			skipped++
			continue
		}
		classified = append(classified, models.Record{ID: rec.ID, Text: rec.Text, Labels: vector})
		fmt.Printf("Classified %s (%d/%d)\n", rec.ID, i+1, len(selected))
	}
	if len(classified) == 0 {
		exitError("no records classified (%d failed)", skipped)
	}

	examples := len(master)
	if examples > c.Config.Batch.MaxExamples {
		examples = c.Config.Batch.MaxExamples
	}
	meta, err := c.Batches.Record(classified, batch.Meta{
		Strategy:     strategy,
		ExampleCount: examples,
		Model:        classifier.Model(),
	})
	if err != nil {
		exitError("failed to record batch: %v", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Recorded batch %s\n", meta.Name)
	fmt.Printf("%d records classified", len(classified))
	if skipped > 0 {
		fmt.Printf(", %d skipped", skipped)
	}
	fmt.Println()
	fmt.Println("Export it for review with \"labelctl export " + meta.Name + "\"")
}
