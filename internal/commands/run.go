package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/instructions"
	"github.com/zhaksylykov/wistep/internal/models"
	"github.com/zhaksylykov/wistep/internal/parser"
	"github.com/zhaksylykov/wistep/internal/session"
	"github.com/zhaksylykov/wistep/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run [mo-number]",
	Short: "Execute a work instruction for a manufacturing order",
	Long: `Start (or resume) a work-instruction session for a manufacturing order.
The instruction is matched against the catalog by MO pattern; use
--instruction when more than one matches.

Examples:
  wistep run MO-1042
  wistep run 1042 --instruction WI-7`,
	Args: cobra.ExactArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		operator, cfg, ok := requireOperator()
		if !ok {
			return
		}

		mo, err := parser.NormalizeMONumber(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		catalogDir, _ := cmd.Flags().GetString("catalog")
		if catalogDir == "" {
			catalogDir = cfg.CatalogDir
		}
		catalog := instructions.NewCatalog(catalogDir)

		wi, err := pickInstruction(cmd, catalog, mo)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if wi == nil {
			return
		}

		autoStop := session.AutoStop{
			Enabled:      cfg.AutoStop.Enabled,
			GraceSeconds: cfg.AutoStop.GraceSeconds,
		}

		existing, err := db.FindActiveSession(operator.ID, wi.ID, mo)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var runner *session.Runner
		var sessionID uint
		if existing != nil {
			runner = session.Restore(wi, existing, time.Now, autoStop)
			sessionID = existing.ID
			fmt.Printf("▶ Resuming session #%d for %s (%s)\n", existing.ID, mo, wi.Title)
		} else {
			ws, err := db.CreateSession(operator.ID, operator.Name, wi, mo)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			runner = session.NewRunner(wi, time.Now, autoStop)
			sessionID = ws.ID
		}

		if err := tui.RunRunnerTUI(runner, sessionID, *operator); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

// pickInstruction resolves the instruction for an MO: the --instruction
// flag wins, otherwise the catalog is matched by MO pattern. A nil
// instruction with a nil error means the ambiguity was already reported.
func pickInstruction(cmd *cobra.Command, catalog *instructions.Catalog, mo string) (*models.WorkInstruction, error) {
	if id, _ := cmd.Flags().GetString("instruction"); id != "" {
		return catalog.Get(id)
	}

	matches, err := catalog.FindForMO(mo)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no work instruction in the catalog matches %s (see: wistep instructions)", mo)
	case 1:
		return &matches[0], nil
	default:
		fmt.Printf("%d instructions match %s - pick one with --instruction:\n", len(matches), mo)
		for _, wi := range matches {
			fmt.Printf("  %-10s %s\n", wi.ID, wi.Title)
		}
		return nil, nil
	}
}

func init() {
	runCmd.Flags().String("instruction", "", "Work instruction ID to run (skips MO pattern matching)")
	runCmd.Flags().String("catalog", "", "Override the instruction catalog directory")
}
