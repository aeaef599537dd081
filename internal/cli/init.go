package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkalnins/labelctl/internal/config"
	"github.com/mkalnins/labelctl/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new labelctl project",
	Long: `Initialize a new labelctl project in the current directory.
This creates a .labelctl directory holding the config, the sidecar index,
and the snapshot, batch, and training subdirectories.

The label schema is fixed at init time, for example:

  labelctl init --label urgent="requires same-day response" --label spam`,
	Run: runInit,
}

var initLabels []string

func init() {
	initCmd.Flags().StringArrayVar(&initLabels, "label", nil, "Label as name=description (repeatable)")
}

func runInit(cmd *cobra.Command, args []string) {
	if _, err := config.FindRoot(); err == nil {
		exitError("labelctl project already exists")
	}
	if len(initLabels) == 0 {
		exitError("at least one --label is required")
	}

	labels := make([]config.Label, 0, len(initLabels))
	for _, spec := range initLabels {
		name, desc, _ := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			exitError("invalid --label %q: empty name", spec)
		}
		labels = append(labels, config.Label{Name: name, Description: strings.TrimSpace(desc)})
	}

	cfg, err := config.Initialize(labels)
	if err != nil {
		exitError("failed to initialize project: %v", err)
	}

	idx, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to create index: %v", err)
	}
	defer idx.Close()
	if err := idx.Initialize(); err != nil {
		exitError("failed to initialize index: %v", err)
	}

	green := color.New(color.FgGreen)
	green.Println("Initialized labelctl project")
	fmt.Printf("Labels: %s\n", strings.Join(cfg.LabelNames(), ", "))
	fmt.Printf("Config: %s\n", cfg.Path())
}
