package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/models"
	"github.com/zhaksylykov/wistep/internal/session"
	"github.com/zhaksylykov/wistep/internal/timeutil"
)

var reviewCmd = &cobra.Command{
	Use:   "review [session-id]",
	Short: "Approve or reject a completed session",
	Long: `Review a completed session. Requires an admin identity (wistep login
with --admin). Without --approve or --reject the session is printed for
inspection.

Examples:
  wistep review 12                 # inspect
  wistep review 12 --approve
  wistep review 12 --reject -m "step 3 time looks wrong"`,
	Args: cobra.ExactArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		operator, _, ok := requireOperator()
		if !ok {
			return
		}

		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid session ID '%s'\n", args[0])
			return
		}

		approve, _ := cmd.Flags().GetBool("approve")
		reject, _ := cmd.Flags().GetBool("reject")
		comment, _ := cmd.Flags().GetString("message")

		if !approve && !reject {
			printSessionDetail(uint(id))
			return
		}
		if approve && reject {
			fmt.Println("Error: pick one of --approve or --reject")
			return
		}
		if !operator.Admin {
			fmt.Println("Error: reviewing sessions requires an admin identity")
			return
		}

		status := models.ReviewApproved
		if reject {
			status = models.ReviewRejected
		}
		if err := db.Review(uint(id), operator.ID, operator.Name, status, comment); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("✅ Session #%d %s\n", id, status)
	}),
}

func printSessionDetail(id uint) {
	s, err := db.GetSession(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Session #%d - %s (%s)\n", s.ID, s.WorkInstructionTitle, s.MONumber)
	fmt.Printf("Operator: %s\n", s.OperatorName)
	fmt.Printf("Status: %s", s.Status)
	if s.ReviewStatus != "" {
		fmt.Printf(" · review %s", s.ReviewStatus)
	}
	fmt.Println()
	fmt.Printf("Total time: %s\n\n", timeutil.FormatHMS(s.TotalTime))

	for i, st := range s.StepStatuses {
		line := fmt.Sprintf("  step %d: %s", i+1, session.StepStatus(st).Label())
		if i < len(s.StepTimes) && s.StepTimes[i] > 0 {
			line += " (" + timeutil.FormatClock(s.StepTimes[i]) + ")"
		}
		if st == "skipped" && i < len(s.SkipReasons) && s.SkipReasons[i] != "" {
			line += " - " + s.SkipReasons[i]
		}
		fmt.Println(line)
	}

	if len(s.TroubleshootHistory) > 0 {
		fmt.Println("\nCorrections:")
		for _, rec := range s.TroubleshootHistory {
			fmt.Printf("  %s %s step %d: %s → %s (%s)\n",
				rec.Timestamp.Format("2006-01-02 15:04"), rec.Action, rec.StepIndex+1,
				timeutil.FormatClock(rec.OriginalTime), timeutil.FormatClock(rec.AdjustedTime),
				rec.Reason)
		}
	}
	if s.AdminComment != "" {
		fmt.Printf("\nAdmin comment (%s): %s\n", s.AdminName, s.AdminComment)
	}
}

func init() {
	reviewCmd.Flags().Bool("approve", false, "Approve the session")
	reviewCmd.Flags().Bool("reject", false, "Reject the session")
	reviewCmd.Flags().StringP("message", "m", "", "Review comment")
}
