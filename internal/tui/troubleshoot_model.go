package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhaksylykov/wistep/internal/parser"
	"github.com/zhaksylykov/wistep/internal/session"
	"github.com/zhaksylykov/wistep/internal/timeutil"
)

// troubleshootStage is the wizard position inside the modal.
type troubleshootStage int

const (
	stageCategory troubleshootStage = iota
	stageAction
	stageTimeEntry
	stageRangeStart
	stageRangeEnd
	stageReason
	stageConfirm
	stageResult
)

// troubleshootModel is the correction modal: pick a category, pick a fix,
// enter a time and reason where needed, confirm when gated. It drives the
// Troubleshooter; all state mutation happens in the engine.
type troubleshootModel struct {
	shooter *session.Troubleshooter
	runner  *session.Runner

	stage      troubleshootStage
	categories []session.Category
	catIndex   int
	actIndex   int

	timeInput   textinput.Model
	startInput  textinput.Model
	endInput    textinput.Model
	reasonInput textinput.Model
	rangeMode   bool // time from a start/end pair instead of a duration

	chosen  session.FixAction
	params  session.FixParams
	errMsg  string
	result  string
	done    bool
	applied bool
}

func newTroubleshootModel(shooter *session.Troubleshooter, r *session.Runner) troubleshootModel {
	mk := func(placeholder string) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.Width = 40
		in.CharLimit = 60
		in.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		in.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		return in
	}
	return troubleshootModel{
		shooter:     shooter,
		runner:      r,
		categories:  session.Catalog(),
		timeInput:   mk("Correct time: 90, 4:30, or 1h30m"),
		startInput:  mk("Actual start: HH:MM or HH:MM:SS"),
		endInput:    mk("Actual end: HH:MM or HH:MM:SS"),
		reasonInput: mk("What went wrong? (kept in the session history)"),
		params:      session.FixParams{StepIndex: r.CurrentStep()},
	}
}

func (m troubleshootModel) init() tea.Cmd { return nil }

func (m troubleshootModel) update(msg tea.Msg) (troubleshootModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.errMsg = ""

	switch m.stage {
	case stageCategory:
		switch key.String() {
		case "up", "k":
			if m.catIndex > 0 {
				m.catIndex--
			}
		case "down", "j":
			if m.catIndex < len(m.categories)-1 {
				m.catIndex++
			}
		case "enter":
			m.stage = stageAction
			m.actIndex = 0
		}
		return m, nil

	case stageAction:
		actions := m.categories[m.catIndex].Actions
		switch key.String() {
		case "esc":
			m.stage = stageCategory
		case "up", "k":
			if m.actIndex > 0 {
				m.actIndex--
			}
		case "down", "j":
			if m.actIndex < len(actions)-1 {
				m.actIndex++
			}
		case "enter":
			m.chosen = actions[m.actIndex]
			if m.chosen.NeedsTime {
				m.rangeMode = false
				m.stage = stageTimeEntry
				m.timeInput.SetValue("")
				return m, m.timeInput.Focus()
			}
			m.stage = stageReason
			m.reasonInput.SetValue("")
			return m, m.reasonInput.Focus()
		}
		return m, nil

	case stageTimeEntry:
		switch key.String() {
		case "esc":
			m.stage = stageAction
			m.timeInput.Blur()
			return m, nil
		case "tab":
			// Switch to start/end entry; both converge on the same value.
			m.rangeMode = true
			m.stage = stageRangeStart
			m.timeInput.Blur()
			m.startInput.SetValue("")
			m.endInput.SetValue("")
			return m, m.startInput.Focus()
		case "enter":
			secs, err := parser.ParseTimeEntry(m.timeInput.Value())
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.params.NewTime = secs
			m.stage = stageReason
			m.timeInput.Blur()
			m.reasonInput.SetValue("")
			return m, m.reasonInput.Focus()
		}
		var cmd tea.Cmd
		m.timeInput, cmd = m.timeInput.Update(msg)
		return m, cmd

	case stageRangeStart:
		switch key.String() {
		case "esc":
			m.rangeMode = false
			m.stage = stageTimeEntry
			m.startInput.Blur()
			return m, m.timeInput.Focus()
		case "enter":
			if _, err := parser.ParseTimestamp(m.startInput.Value(), time.Now()); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.stage = stageRangeEnd
			m.startInput.Blur()
			return m, m.endInput.Focus()
		}
		var cmd tea.Cmd
		m.startInput, cmd = m.startInput.Update(msg)
		return m, cmd

	case stageRangeEnd:
		switch key.String() {
		case "esc":
			m.stage = stageRangeStart
			m.endInput.Blur()
			return m, m.startInput.Focus()
		case "enter":
			ref := time.Now()
			start, err := parser.ParseTimestamp(m.startInput.Value(), ref)
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			end, err := parser.ParseTimestamp(m.endInput.Value(), ref)
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			// A reversed pair clamps to zero rather than erroring.
			m.params.NewTime = parser.DurationFromRange(start, end)
			m.stage = stageReason
			m.endInput.Blur()
			m.reasonInput.SetValue("")
			return m, m.reasonInput.Focus()
		}
		var cmd tea.Cmd
		m.endInput, cmd = m.endInput.Update(msg)
		return m, cmd

	case stageReason:
		switch key.String() {
		case "esc":
			m.stage = stageAction
			m.reasonInput.Blur()
			return m, nil
		case "enter":
			m.params.Reason = m.reasonInput.Value()
			m.reasonInput.Blur()
			return m.requestFix()
		}
		var cmd tea.Cmd
		m.reasonInput, cmd = m.reasonInput.Update(msg)
		return m, cmd

	case stageConfirm:
		switch key.String() {
		case "y", "Y", "enter":
			if err := m.shooter.Confirm(); err != nil {
				m.errMsg = err.Error()
				m.stage = stageAction
				return m, nil
			}
			return m.finish()
		case "n", "N", "esc":
			m.shooter.Dismiss()
			m.stage = stageAction
		}
		return m, nil

	case stageResult:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m troubleshootModel) requestFix() (troubleshootModel, tea.Cmd) {
	if err := m.shooter.Request(m.categories[m.catIndex].ID, m.chosen, m.params); err != nil {
		m.errMsg = err.Error()
		m.stage = stageAction
		return m, nil
	}
	if _, pending := m.shooter.Pending(); pending {
		m.stage = stageConfirm
		return m, nil
	}
	return m.finish()
}

func (m troubleshootModel) finish() (troubleshootModel, tea.Cmd) {
	m.applied = true
	m.stage = stageResult
	m.result = fmt.Sprintf("Applied %s to step %d. Recorded time is now %s.",
		m.chosen.Label, m.params.StepIndex+1,
		timeutil.FormatClock(m.runner.StepTime(m.params.StepIndex)))
	return m, nil
}

func (m troubleshootModel) view(width, height int) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)
	b.WriteString(headerStyle.Render(fmt.Sprintf("Troubleshoot · step %d", m.params.StepIndex+1)))
	b.WriteString("\n\n")

	selStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))

	switch m.stage {
	case stageCategory:
		b.WriteString(dimStyle.Render("What happened?"))
		b.WriteString("\n\n")
		for i, cat := range m.categories {
			line := "  " + cat.Title
			if i == m.catIndex {
				line = selStyle.Render("▸ " + cat.Title)
			}
			b.WriteString(line + "\n")
		}

	case stageAction:
		cat := m.categories[m.catIndex]
		b.WriteString(dimStyle.Render(cat.Prompt))
		b.WriteString("\n\n")
		for i, act := range cat.Actions {
			line := "  " + act.Label
			if i == m.actIndex {
				line = selStyle.Render("▸ " + act.Label)
			}
			b.WriteString(line + "\n")
		}

	case stageTimeEntry:
		b.WriteString(dimStyle.Render("Enter the correct duration (tab: use start/end times instead)"))
		b.WriteString("\n\n")
		b.WriteString(m.timeInput.View())

	case stageRangeStart:
		b.WriteString(dimStyle.Render("When did the work actually start?"))
		b.WriteString("\n\n")
		b.WriteString(m.startInput.View())

	case stageRangeEnd:
		b.WriteString(dimStyle.Render("When did the work actually end?"))
		b.WriteString("\n\n")
		b.WriteString(m.endInput.View())

	case stageReason:
		b.WriteString(dimStyle.Render("Why is this correction needed?"))
		b.WriteString("\n\n")
		b.WriteString(m.reasonInput.View())

	case stageConfirm:
		msg, _ := m.shooter.Pending()
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Bold(true)
		b.WriteString(warnStyle.Render(msg))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("y apply · n cancel"))

	case stageResult:
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
		b.WriteString(okStyle.Render(m.result))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("press any key to return"))
	}

	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render(m.errMsg))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (m troubleshootModel) help() string {
	switch m.stage {
	case stageCategory:
		return "↑/↓ choose · enter select · esc close"
	case stageConfirm:
		return "y confirm · n cancel"
	case stageResult:
		return "any key to return"
	default:
		return "enter continue · esc back"
	}
}
