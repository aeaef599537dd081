package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old batch artifacts",
	Long: `Delete the oldest batch artifacts, keeping the most recent ones.
The snapshot and the audit log are never touched.`,
	Run: runPrune,
}

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "How many recent batches to keep (default from config)")
}

func runPrune(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	keep := pruneKeep
	if keep <= 0 {
		keep = c.Config.Retention.KeepBatches
	}

	removed, err := c.Batches.Prune(keep)
	if err != nil {
		exitError("failed to prune: %v", err)
	}
	if len(removed) == 0 {
		fmt.Printf("Nothing to prune (keeping %d)\n", keep)
		return
	}

	for _, name := range removed {
		fmt.Printf("Removed %s\n", name)
	}
	color.New(color.FgGreen).Printf("Pruned %d batches, kept %d most recent\n", len(removed), keep)
}
