package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/models"
	"github.com/zhaksylykov/wistep/internal/parser"
	"github.com/zhaksylykov/wistep/internal/timeutil"
	"github.com/zhaksylykov/wistep/internal/tui"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Live list of your work sessions",
	Long: `List your work sessions, newest activity first. Opens a live-updating
view by default; use --no-ui for a plain table.

Examples:
  wistep sessions          # live view
  wistep sessions --no-ui  # plain table
  wistep sessions --mo MO-1042`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		operator, cfg, ok := requireOperator()
		if !ok {
			return
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			sessions, err := db.ListSessions(operator.ID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			moFilter, _ := cmd.Flags().GetString("mo")
			if moFilter != "" {
				normalized, err := parser.NormalizeMONumber(moFilter)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					return
				}
				moFilter = normalized
			}
			printSessionTable(sessions, moFilter)
			return
		}

		feed := db.NewPollingFeed(time.Duration(cfg.PollIntervalMs) * time.Millisecond)
		if err := tui.RunSessionsTUI(feed, operator.ID); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

func printSessionTable(sessions []models.WorkSession, moFilter string) {
	shown := 0
	for _, s := range sessions {
		if moFilter != "" && s.MONumber != moFilter {
			continue
		}
		if shown == 0 {
			fmt.Printf("%-5s %-10s %-28s %-8s %-10s %-10s %s\n",
				"ID", "MO", "INSTRUCTION", "STEPS", "TIME", "STATUS", "REVIEW")
		}
		shown++

		review := s.ReviewStatus
		if review == "" {
			review = "-"
		}
		fmt.Printf("#%-4d %-10s %-28s %d/%-6d %-10s %-10s %s\n",
			s.ID, s.MONumber, s.WorkInstructionTitle,
			s.CompletedSteps(), s.StepCount(),
			timeutil.FormatHMS(s.TotalTime), s.Status, review)
	}
	if shown == 0 {
		fmt.Println("No sessions found")
	}
}

func init() {
	sessionsCmd.Flags().Bool("no-ui", false, "Print a plain table instead of the live view")
	sessionsCmd.Flags().String("mo", "", "Only show sessions for this MO number (with --no-ui)")
}
