package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show snapshot and batch history",
	Run:   runLog,
}

func runLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	snapshots, err := c.Index.ListSnapshots()
	if err != nil {
		exitError("failed to list snapshots: %v", err)
	}
	current, _ := c.Index.GetCurrentSnapshot()

	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	if len(snapshots) == 0 {
		fmt.Println("No snapshots yet")
	}
	for _, s := range snapshots {
		yellow.Printf("snapshot %s", s.Name)
		if s.Name == current {
			cyan.Print(" (current)")
		}
		fmt.Println()
		fmt.Printf("Date:    %s\n", s.CreatedAt.Format("Mon Jan 2 15:04:05 2006"))
		fmt.Printf("Records: %d\n\n", s.RecordCount)
	}

	batches, err := c.Batches.List(false)
	if err != nil {
		exitError("failed to list batches: %v", err)
	}
	if len(batches) == 0 {
		return
	}

	fmt.Println("Batches:")
	for _, b := range batches {
		fmt.Print("  ")
		yellow.Printf("%s", b.Name)
		if b.Folded() {
			green.Printf("  folded %s", b.FoldedAt.Format("Jan 2 15:04:05"))
		} else {
			cyan.Print("  pending")
		}
		fmt.Println()
	}
}
