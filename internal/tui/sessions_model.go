package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/models"
	"github.com/zhaksylykov/wistep/internal/session"
	"github.com/zhaksylykov/wistep/internal/timeutil"
)

// feedSnapshotMsg carries a fresh session list from the store feed.
type feedSnapshotMsg []models.WorkSession

// feedErrMsg carries a feed error; the list keeps its last snapshot.
type feedErrMsg struct{ err error }

// feedClosedMsg means the subscription channel was closed.
type feedClosedMsg struct{}

// SessionsModel is the live session list: the left panel is a table fed by
// a store subscription, the right panel shows the selected session.
type SessionsModel struct {
	width  int
	height int

	sub      *db.Subscription
	sessions []models.WorkSession
	selected int

	currentPage int
	perPage     int

	feedErr string
	closed  bool
}

// NewSessionsModel builds the list around an already-open subscription.
// The model owns the subscription and closes it on quit.
func NewSessionsModel(sub *db.Subscription) SessionsModel {
	return SessionsModel{sub: sub, perPage: 10}
}

// Init starts draining the feed channels.
func (m SessionsModel) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), m.waitErr())
}

func (m SessionsModel) waitSnapshot() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		snapshot, ok := <-sub.Sessions
		if !ok {
			return feedClosedMsg{}
		}
		return feedSnapshotMsg(snapshot)
	}
}

func (m SessionsModel) waitErr() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		err, ok := <-sub.Errors
		if !ok {
			return nil
		}
		return feedErrMsg{err: err}
	}
}

// Update handles messages
func (m SessionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case feedSnapshotMsg:
		m.sessions = msg
		m.feedErr = ""
		if m.selected >= len(m.sessions) {
			m.selected = len(m.sessions) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		m.clampPage()
		return m, m.waitSnapshot()

	case feedErrMsg:
		// Keep showing the last snapshot; the feed retries on its own
		// unless the failure was terminal.
		m.feedErr = msg.err.Error()
		if db.KindOf(msg.err) == db.FailurePermission {
			m.closed = true
			return m, nil
		}
		return m, m.waitErr()

	case feedClosedMsg:
		m.closed = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.perPage = m.height - 12
		if m.perPage < 3 {
			m.perPage = 3
		}
		m.clampPage()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.sub.Unsubscribe()
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.clampPage()
			}
			return m, nil

		case "down", "j":
			if m.selected < len(m.sessions)-1 {
				m.selected++
				m.clampPage()
			}
			return m, nil

		case "left", "h":
			if m.currentPage > 0 {
				m.currentPage--
				m.selected = m.currentPage * m.perPage
			}
			return m, nil

		case "right", "l":
			if (m.currentPage+1)*m.perPage < len(m.sessions) {
				m.currentPage++
				m.selected = m.currentPage * m.perPage
			}
			return m, nil
		}
	}

	return m, nil
}

// clampPage keeps the current page aligned with the selection.
func (m *SessionsModel) clampPage() {
	if m.perPage <= 0 {
		m.perPage = 10
	}
	m.currentPage = m.selected / m.perPage
}

// View renders the TUI
func (m SessionsModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSessionTable(leftWidth),
		" ",
		m.renderSessionDetails(rightWidth),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		"",
		content,
		"",
		m.renderStatusBar(),
	)
}

// renderSessionTable renders the left panel with the session table
func (m SessionsModel) renderSessionTable(width int) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright))
	b.WriteString(headerStyle.Render("🔧 Sessions"))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true)
		b.WriteString(emptyStyle.Render("No sessions yet"))
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Width(width).
			Render(b.String())
	}

	availableWidth := width - 4
	moWidth := 10
	progressWidth := 7
	updatedWidth := 8
	titleWidth := availableWidth - moWidth - progressWidth - updatedWidth - 6
	if titleWidth < 16 {
		titleWidth = 16
	}

	columnHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Padding(0, 1)
	headers := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		moWidth, "MO",
		titleWidth, "INSTRUCTION",
		progressWidth, "STEPS",
		updatedWidth, "UPDATED")
	b.WriteString(columnHeaderStyle.Render(headers))
	b.WriteString("\n\n")

	startIndex := m.currentPage * m.perPage
	endIndex := min(startIndex+m.perPage, len(m.sessions))

	for i := startIndex; i < endIndex; i++ {
		s := m.sessions[i]
		isSelected := i == m.selected

		progress := fmt.Sprintf("%d/%d", s.CompletedSteps(), s.StepCount())
		progressColor := ColorSecondaryText
		if s.Status == models.SessionCompleted {
			progressColor = ColorSuccess
		}

		rowContent := fmt.Sprintf("%-*s %-*s %-*s %-*s",
			moWidth, truncate(s.MONumber, moWidth),
			titleWidth, truncate(s.WorkInstructionTitle, titleWidth),
			progressWidth, lipgloss.NewStyle().Foreground(lipgloss.Color(progressColor)).Render(progress),
			updatedWidth, relativeAge(s.LastUpdated))

		if isSelected {
			selectedBorder := lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).
				Bold(true).
				Padding(0, 1)
			b.WriteString(selectedBorder.Render(rowContent))
		} else {
			b.WriteString(" " + rowContent)
		}
		b.WriteString("\n")
	}

	if m.perPage < len(m.sessions) {
		totalPages := (len(m.sessions) + m.perPage - 1) / m.perPage
		pageInfo := fmt.Sprintf("Page %d/%d (%d sessions)", m.currentPage+1, totalPages, len(m.sessions))
		pageStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).
			Width(width - 2).
			MarginTop(1)
		b.WriteString(pageStyle.Render(pageInfo))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderSessionDetails renders the right panel with the selected session
func (m SessionsModel) renderSessionDetails(width int) string {
	var b strings.Builder

	if len(m.sessions) == 0 || m.selected >= len(m.sessions) {
		logoStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccentMain)).
			Bold(true).
			Align(lipgloss.Center).
			Width(width)
		b.WriteString(logoStyle.Render("wistep"))

		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Align(lipgloss.Center).
			Width(width).
			MarginTop(2)
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render("Select a session to view details"))
	} else {
		s := m.sessions[m.selected]

		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Width(width)
		b.WriteString(titleStyle.Render("📋 " + s.WorkInstructionTitle))
		b.WriteString("\n\n")

		label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))

		b.WriteString(label.Render("MO: "))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render(s.MONumber))
		b.WriteString("\n")

		b.WriteString(label.Render("Operator: "))
		b.WriteString(s.OperatorName)
		b.WriteString("\n")

		b.WriteString(label.Render("Status: "))
		b.WriteString(sessionStatusBadge(s.Status))
		b.WriteString("\n")

		if s.ReviewStatus != "" {
			b.WriteString(label.Render("Review: "))
			b.WriteString(reviewStatusBadge(s.ReviewStatus))
			if s.AdminComment != "" {
				b.WriteString(" · " + truncate(s.AdminComment, width-14))
			}
			b.WriteString("\n")
		}

		b.WriteString(label.Render("Total time: "))
		b.WriteString(timeutil.FormatHMS(s.TotalTime))
		b.WriteString("\n\n")

		for i, st := range s.StepStatuses {
			status := session.StepStatus(st)
			line := fmt.Sprintf("%s step %d", status.Icon(), i+1)
			if i < len(s.StepTimes) && s.StepTimes[i] > 0 {
				line += "  " + timeutil.FormatClock(s.StepTimes[i])
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(status))).Render(line))
			b.WriteString("\n")
		}

		if n := len(s.TroubleshootHistory); n > 0 {
			b.WriteString("\n")
			b.WriteString(label.Render(fmt.Sprintf("%d correction(s) on record", n)))
			b.WriteString("\n")
		}
		if n := len(s.Notes); n > 0 {
			last := s.Notes[n-1]
			noteStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSecondaryText)).
				Italic(true).
				Width(width - 2)
			b.WriteString("\n")
			b.WriteString(noteStyle.Render(fmt.Sprintf("%s: %s", last.Author, last.Text)))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderStatusBar renders the feed state and hotkey hints
func (m SessionsModel) renderStatusBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	if m.closed {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Align(lipgloss.Center).
			Width(m.width).
			Render("feed stopped: " + m.feedErr + " · q quit")
	}
	if m.feedErr != "" {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning)).
			Align(lipgloss.Center).
			Width(m.width).
			Render("reconnecting… showing last known sessions · q quit")
	}
	return helpStyle.Render("↑/↓ nav · ←/→ page · q/esc quit")
}

func sessionStatusBadge(status string) string {
	switch status {
	case models.SessionCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Bold(true).Render("completed")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInfo)).Bold(true).Render("in progress")
	}
}

func reviewStatusBadge(status string) string {
	switch status {
	case models.ReviewApproved:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render("approved")
	case models.ReviewRejected:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("rejected")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("pending")
	}
}

// relativeAge formats a timestamp the way the table wants it: compact and
// coarse, "now" through "3d".
func relativeAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
