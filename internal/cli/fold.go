package cli

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/merge"
)

var foldCmd = &cobra.Command{
	Use:   "fold [batch-name]",
	Short: "Fold a correction batch into the snapshot",
	Long: `Merge a corrected batch into the master snapshot. The batch wins on
every record it carries; overwritten label values are recorded in the
audit log. With --all, every unfolded batch is merged oldest first.`,
	Run: runFold,
}

var foldAll bool

func init() {
	foldCmd.Flags().BoolVar(&foldAll, "all", false, "Fold every unfolded batch, oldest first")
}

func runFold(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()
	c.Engine.Logger = slog.Default()

	if foldAll {
		if len(args) > 0 {
			exitError("--all takes no batch name")
		}
		results, err := c.Engine.FoldInAll()
		for _, result := range results {
			printFoldResult(result)
		}
		if err != nil {
			exitError("%v", err)
		}
		if len(results) == 0 {
			fmt.Println("No batches awaiting fold-in")
		}
		return
	}

	if len(args) != 1 {
		exitError("batch name required (or --all)")
	}
	result, err := c.Engine.FoldIn(args[0])
	if err != nil {
		exitError("%v", err)
	}
	printFoldResult(result)
}

func printFoldResult(result *merge.FoldResult) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Printf("Folded %s\n", result.BatchName)
	green.Printf("  snapshot %s\n", result.Snapshot.Name)
	fmt.Printf("  %d added, %d updated, %d unchanged (%d records total)\n",
		result.Added, result.Updated, result.Unchanged, result.Snapshot.RecordCount)
	if result.Overwrites > 0 {
		yellow.Printf("  %d label values overwritten (see \"labelctl audit\")\n", result.Overwrites)
	}
}
