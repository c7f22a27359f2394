package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/models"
	"github.com/zhaksylykov/wistep/internal/timeutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your in-progress sessions",
	Run: withDB(func(cmd *cobra.Command, args []string) {
		operator, _, ok := requireOperator()
		if !ok {
			return
		}

		sessions, err := db.ListSessions(operator.ID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		found := false
		for _, s := range sessions {
			if s.Status != models.SessionInProgress {
				continue
			}
			found = true
			fmt.Printf("⏱️  Session #%d - %s (%s)\n", s.ID, s.WorkInstructionTitle, s.MONumber)
			fmt.Printf("    step %d of %d · %d done · %s banked\n",
				s.CurrentStep+1, s.StepCount(), s.CompletedSteps(),
				timeutil.FormatHMS(s.TotalTime))
		}
		if !found {
			fmt.Println("No in-progress sessions")
		}
	}),
}
