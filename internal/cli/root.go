// Package cli implements the command-line interface for labelctl.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/batch"
	"github.com/mkalnins/labelctl/internal/config"
	"github.com/mkalnins/labelctl/internal/merge"
	"github.com/mkalnins/labelctl/internal/prompt"
	"github.com/mkalnins/labelctl/internal/snapshot"
	"github.com/mkalnins/labelctl/internal/store"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config    *config.Config
	Index     *store.Store
	Snapshots *snapshot.Store
	Batches   *batch.Tracker
	Prompts   *prompt.Builder
	Engine    *merge.Engine
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Index != nil {
		c.Index.Close()
	}
}

// initContext loads the project config, opens the sidecar index, and wires
// the snapshot store, batch tracker, and merge engine.
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	idx, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open index: %v", err)
	}
	if err := idx.Initialize(); err != nil {
		idx.Close()
		exitError("failed to initialize index: %v", err)
	}

	labels := cfg.LabelNames()
	snapshots := snapshot.NewStore(cfg.SnapshotsPath(), idx, labels)
	batches := batch.NewTracker(cfg.BatchesPath(), idx, labels)
	prompts := prompt.NewBuilder(labels, cfg.Definitions())

	engine := &merge.Engine{
		Snapshots:    snapshots,
		Batches:      batches,
		Index:        idx,
		Labels:       labels,
		Prompts:      prompts,
		TrainingPath: cfg.TrainingPath(),
		MaxExamples:  cfg.Batch.MaxExamples,
	}

	return &cmdContext{
		Config:    cfg,
		Index:     idx,
		Snapshots: snapshots,
		Batches:   batches,
		Prompts:   prompts,
		Engine:    engine,
	}
}

var rootCmd = &cobra.Command{
	Use:   "labelctl",
	Short: "Human-in-the-loop label state management",
	Long: `labelctl manages human-in-the-loop multi-label classification state:
model predictions collected into correction batches, manual edits made in a
spreadsheet round-trip, and a single canonical master snapshot kept
consistent across merges, exports, and re-imports.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(foldCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(auditCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
