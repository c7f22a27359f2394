package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhaksylykov/wistep/internal/auth"
	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/models"
	"github.com/zhaksylykov/wistep/internal/session"
	"github.com/zhaksylykov/wistep/internal/timeutil"
)

// RunRunnerTUI starts the interactive execution screen for one session.
// The runner state is already persisted step by step while the screen is
// open; this only prints a closing summary.
func RunRunnerTUI(r *session.Runner, sessionID uint, operator auth.Identity) error {
	model := NewRunnerModel(r, sessionID, operator)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(RunnerModel); ok {
		run := m.runner
		if run.Status() == models.SessionCompleted {
			fmt.Printf("✅ Session complete - total time %s. Submitted for review.\n",
				timeutil.FormatHMS(run.TotalTime()))
		} else {
			done := 0
			for _, st := range run.Statuses() {
				if st.Resolved() {
					done++
				}
			}
			fmt.Printf("⏸ Session paused at %d/%d steps - run the same MO again to resume.\n",
				done, len(run.Statuses()))
		}
		if m.persistErr {
			fmt.Println("⚠ The last write did not reach the store; it will be retried on resume.")
		}
	}

	return nil
}

// RunSessionsTUI starts the live session list for one operator.
func RunSessionsTUI(feed db.SessionFeed, operatorID string) error {
	sub := feed.Subscribe(operatorID)
	model := NewSessionsModel(sub)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		sub.Unsubscribe()
		return err
	}

	if m, ok := finalModel.(SessionsModel); ok && m.closed && m.feedErr != "" {
		fmt.Printf("❌ Session feed stopped: %s\n", m.feedErr)
	}

	return nil
}
