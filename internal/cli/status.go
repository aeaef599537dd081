package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show label state status",
	Long:  `Show the current snapshot, pending correction batches, and audit summary.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	fmt.Printf("Labels: %s\n", strings.Join(c.Config.LabelNames(), ", "))

	_, meta, err := c.Snapshots.Latest()
	if err != nil {
		exitError("failed to load current snapshot: %v", err)
	}

	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	if meta == nil {
		fmt.Println("No snapshot yet")
	} else {
		fmt.Print("Snapshot: ")
		yellow.Println(meta.Name)
		fmt.Printf("  %d labeled records, created %s\n",
			meta.RecordCount, meta.CreatedAt.Format("Mon Jan 2 15:04:05 2006"))
	}

	unfolded, err := c.Batches.List(true)
	if err != nil {
		exitError("failed to list batches: %v", err)
	}
	if len(unfolded) == 0 {
		fmt.Println("\nNo batches awaiting fold-in")
	} else {
		fmt.Printf("\nBatches awaiting fold-in:\n")
		cyan.Println("  (use \"labelctl fold <batch>\" or \"labelctl fold --all\")")
		for _, b := range unfolded {
			fmt.Print("  ")
			yellow.Printf("%s", b.Name)
			fmt.Printf("  (%d records)\n", b.SampleSize)
		}
	}

	count, err := c.Index.OverwriteCount()
	if err != nil {
		exitError("failed to count overwrites: %v", err)
	}
	if count > 0 {
		fmt.Print("\nAudit log: ")
		green.Printf("%d overwritten label values", count)
		fmt.Println("  (use \"labelctl audit\" to inspect)")
	}
}
