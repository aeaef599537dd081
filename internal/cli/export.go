package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/export"
	"github.com/mkalnins/labelctl/internal/models"
)

var exportCmd = &cobra.Command{
	Use:   "export [batch-name]",
	Short: "Export records to CSV for review",
	Long: `Export a batch, or the current snapshot when no batch is named, to a
CSV file for spreadsheet review. Edit the label columns only, then bring
the corrections back with "labelctl extract".`,
	Run: runExport,
}

var (
	exportOutput string
	exportSort   bool
	exportLength bool
	exportSource bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output CSV path (default derived from the source name)")
	exportCmd.Flags().BoolVar(&exportSort, "sort-by-length", false, "Order rows by text length, shortest first")
	exportCmd.Flags().BoolVar(&exportLength, "length-column", false, "Include a text_length column")
	exportCmd.Flags().BoolVar(&exportSource, "source", false, "Include a provenance column")
}

func runExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	var records []models.Record
	var sourceName string
	var sources map[string]models.Source

	if len(args) > 1 {
		exitError("at most one batch name")
	}
	if len(args) == 1 {
		var err error
		records, err = c.Batches.Load(args[0])
		if err != nil {
			exitError("%v", err)
		}
		sourceName = args[0]
	} else {
		var meta *models.SnapshotMeta
		var err error
		records, meta, err = c.Snapshots.Latest()
		if err != nil {
			exitError("failed to load current snapshot: %v", err)
		}
		if meta == nil {
			exitError("no snapshot yet; name a batch to export")
		}
		sourceName = meta.Name
		// Snapshot records have been through human review
		sources = make(map[string]models.Source, len(records))
		for _, r := range records {
			sources[r.ID] = models.SourceManual
		}
	}

	output := exportOutput
	if output == "" {
		output = strings.TrimSuffix(sourceName, ".json") + ".csv"
	}

	opts := export.Options{
		IncludeLength: exportLength,
		SortByLength:  exportSort,
		IncludeSource: exportSource,
		Sources:       sources,
	}
	if err := export.WriteCSV(output, records, c.Config.LabelNames(), opts); err != nil {
		exitError("failed to write export: %v", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Exported %d records to %s\n", len(records), output)
	fmt.Println("After editing, run \"labelctl extract " + output + "\"")
}
