package cli

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <edited-csv>",
	Short: "Recover corrections from an edited export",
	Long: `Diff a human-edited CSV export against the current snapshot and
package the changed rows as a new correction batch. Rows with unknown ids
are skipped; edited text cells are ignored, since record text is fixed by
its id. An unedited export produces no batch.`,
	Args: cobra.ExactArgs(1),
	Run:  runExtract,
}

var extractFold bool

func init() {
	extractCmd.Flags().BoolVar(&extractFold, "fold", false, "Immediately fold the extracted batch in")
}

func runExtract(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()
	c.Engine.Logger = slog.Default()

	cs, meta, result, err := c.Engine.ExtractChanges(args[0], extractFold)
	if err != nil {
		exitError("%v", err)
	}

	yellow := color.New(color.FgYellow)
	if cs.SkippedUnknown > 0 {
		yellow.Printf("Skipped %d rows with unknown ids\n", cs.SkippedUnknown)
	}
	if cs.TextEdited > 0 {
		yellow.Printf("Ignored %d edited text cells (text is fixed by id)\n", cs.TextEdited)
	}

	if meta == nil {
		fmt.Println("No label changes found")
		return
	}

	green := color.New(color.FgGreen)
	green.Printf("Extracted %d changed records into %s\n", len(cs.Changes), meta.Name)
	if result != nil {
		printFoldResult(result)
	} else {
		fmt.Println("Fold it in with \"labelctl fold " + meta.Name + "\"")
	}
}
