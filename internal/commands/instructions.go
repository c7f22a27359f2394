package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/config"
	"github.com/zhaksylykov/wistep/internal/instructions"
)

var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "List the work-instruction catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		catalog := instructions.NewCatalog(cfg.CatalogDir)
		all, err := catalog.List()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(all) == 0 {
			fmt.Printf("No instructions found in %s\n", cfg.CatalogDir)
			return
		}

		fmt.Printf("%-10s %-12s %-6s %s\n", "ID", "MO PATTERN", "STEPS", "TITLE")
		for _, wi := range all {
			pattern := wi.MOPattern
			if pattern == "" {
				pattern = "-"
			}
			fmt.Printf("%-10s %-12s %-6d %s\n", wi.ID, pattern, len(wi.Steps), wi.Title)
		}
	},
}
