package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show overwritten label values",
	Long: `Show the audit log of label values that fold-ins overwrote, newest
first. Each entry names the record, the label, both values, and the batch
that caused the overwrite.`,
	Run: runAudit,
}

var auditLimit int

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "n", "n", 0, "Limit the number of entries to show")
}

func runAudit(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	entries, err := c.Index.ListOverwrites(auditLimit)
	if err != nil {
		exitError("failed to read audit log: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No overwrites recorded")
		return
	}

	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	for _, e := range entries {
		fmt.Printf("%s  ", e.Timestamp.Format("2006-01-02 15:04:05"))
		yellow.Printf("%s", e.RecordID)
		fmt.Printf("  %s: ", e.Label)
		red.Printf("%d", e.OldValue)
		fmt.Print(" -> ")
		green.Printf("%d", e.NewValue)
		fmt.Printf("  (%s)\n", e.BatchName)
	}
}
