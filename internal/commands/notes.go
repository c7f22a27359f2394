package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zhaksylykov/wistep/internal/db"
)

var notesCmd = &cobra.Command{
	Use:   "notes [session-id]",
	Short: "Show or add session notes",
	Long: `Show the note log for a session, or append to it.

Examples:
  wistep notes 12
  wistep notes 12 --add "Torque wrench 3 recalibrated mid-run"`,
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

		if text, _ := cmd.Flags().GetString("add"); text != "" {
			if err := db.AddNote(uint(id), operator.Name, text); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Printf("📝 Note added to session #%d\n", id)
			return
		}

		s, err := db.GetSession(uint(id))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(s.Notes) == 0 {
			fmt.Printf("Session #%d has no notes\n", id)
			return
		}
		for _, n := range s.Notes {
			fmt.Printf("%s  %s: %s\n", n.Timestamp.Format("2006-01-02 15:04"), n.Author, n.Text)
		}
	}),
}

func init() {
	notesCmd.Flags().String("add", "", "Append a note to the session")
}
