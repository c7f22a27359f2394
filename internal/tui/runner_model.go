package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhaksylykov/wistep/internal/auth"
	"github.com/zhaksylykov/wistep/internal/db"
	"github.com/zhaksylykov/wistep/internal/images"
	"github.com/zhaksylykov/wistep/internal/session"
	"github.com/zhaksylykov/wistep/internal/timeutil"
)

// timerTickMsg refreshes the clock display every second. Elapsed time is
// wall-clock derived in the runner, so a missed tick never loses time.
type timerTickMsg struct{}

// animationTickMsg drives the header animation.
type animationTickMsg struct{}

// patchDoneMsg reports the outcome of an async store write.
type patchDoneMsg struct{ err error }

// imageLoadedMsg reports one image probe finishing.
type imageLoadedMsg struct {
	step  int
	image string
	ok    bool
}

// runnerMode is what the keyboard is currently driving.
type runnerMode int

const (
	modeChecklist runnerMode = iota
	modeSkipReason
	modeTroubleshoot
	modeConfirmReset
)

// RunnerModel is the interactive execution screen for one session.
type RunnerModel struct {
	width  int
	height int

	runner    *session.Runner
	shooter   *session.Troubleshooter
	sessionID uint
	operator  auth.Identity

	mode      runnerMode
	skipInput textinput.Model
	modal     troubleshootModel
	tracker   *images.Tracker

	timerAnimation int
	autoStopped    bool
	guardMsg       string // last rejected action, shown inline
	persistErr     bool   // write failing, "reconnecting" indicator
	quitting       bool
}

// NewRunnerModel builds the execution screen around a runner.
func NewRunnerModel(r *session.Runner, sessionID uint, operator auth.Identity) RunnerModel {
	skip := textinput.New()
	skip.Placeholder = "Why is this step being skipped? (required)"
	skip.CharLimit = 200
	skip.Width = 60
	skip.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	skip.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))

	return RunnerModel{
		runner:    r,
		shooter:   session.NewTroubleshooter(r),
		sessionID: sessionID,
		operator:  operator,
		skipInput: skip,
		tracker:   images.NewTracker(),
	}
}

// Init starts the display tickers and image probes for the current step.
func (m RunnerModel) Init() tea.Cmd {
	return tea.Batch(
		timerTick(),
		animationTick(),
		m.probeImages(m.runner.CurrentStep()),
	)
}

func timerTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} })
}

func animationTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return animationTickMsg{} })
}

// persist writes the runner's current state to the store off the UI loop.
// Local state is already applied; a failed write only flips the
// reconnecting indicator and never rolls anything back.
func (m *RunnerModel) persist() tea.Cmd {
	id := m.sessionID
	fields := m.runner.PatchFields()
	return func() tea.Msg {
		return patchDoneMsg{err: db.Patch(id, fields)}
	}
}

// probeImages kicks off async load checks for a step's images.
func (m *RunnerModel) probeImages(step int) tea.Cmd {
	wi := m.runner.Instruction()
	if step < 0 || step >= len(wi.Steps) {
		return nil
	}
	var cmds []tea.Cmd
	for _, img := range images.Resolve(wi.Steps[step]) {
		img := img
		cmds = append(cmds, func() tea.Msg {
			return imageLoadedMsg{step: step, image: img, ok: probeImage(img)}
		})
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m RunnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		if m.runner.CheckAutoStop() {
			m.autoStopped = true
			return m, tea.Batch(timerTick(), m.persist())
		}
		if !m.quitting {
			return m, timerTick()
		}
		return m, nil

	case animationTickMsg:
		m.timerAnimation = (m.timerAnimation + 1) % 4
		if !m.quitting {
			return m, animationTick()
		}
		return m, nil

	case patchDoneMsg:
		m.persistErr = msg.err != nil
		return m, nil

	case imageLoadedMsg:
		if msg.ok {
			m.tracker.MarkLoaded(msg.step, msg.image)
		} else {
			m.tracker.MarkFailed(msg.step, msg.image)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSkipReason:
			return m.updateSkipReason(msg)
		case modeTroubleshoot:
			return m.updateTroubleshoot(msg)
		case modeConfirmReset:
			return m.updateConfirmReset(msg)
		default:
			return m.updateChecklist(msg)
		}
	}

	if m.mode == modeTroubleshoot {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m RunnerModel) updateChecklist(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.guardMsg = ""
	switch msg.String() {
	case "ctrl+c", "q":
		// Leave the session; an in-flight write finishes on its own and
		// the run resumes from the store next time.
		m.quitting = true
		return m, tea.Quit

	case "up", "p":
		idx := m.runner.CurrentStep() - 1
		if idx >= 0 {
			m.runner.GoToStep(idx)
			return m, tea.Batch(m.persist(), m.probeImages(idx))
		}
		return m, nil

	case "down", "n":
		idx := m.runner.CurrentStep() + 1
		if idx < len(m.runner.Instruction().Steps) {
			m.runner.GoToStep(idx)
			return m, tea.Batch(m.persist(), m.probeImages(idx))
		}
		return m, nil

	case "s", " ":
		idx, running := m.runner.Running()
		if running && idx == m.runner.CurrentStep() {
			m.runner.StopStep()
			return m, m.persist()
		}
		m.autoStopped = false
		if err := m.runner.StartStep(m.runner.CurrentStep()); err != nil {
			m.guardMsg = err.Error()
			return m, nil
		}
		return m, m.persist()

	case "c":
		if err := m.runner.CompleteStep(); err != nil {
			m.guardMsg = err.Error()
			return m, nil
		}
		return m, tea.Batch(m.persist(), m.probeImages(m.runner.CurrentStep()))

	case "k":
		if m.runner.StatusAt(m.runner.CurrentStep()) == session.StepCompleted {
			m.guardMsg = session.ErrStepCompleted.Error()
			return m, nil
		}
		m.mode = modeSkipReason
		m.skipInput.SetValue("")
		return m, m.skipInput.Focus()

	case "t":
		m.mode = modeTroubleshoot
		m.modal = newTroubleshootModel(m.shooter, m.runner)
		return m, m.modal.init()

	case "u":
		if m.shooter.CanUndo() {
			m.shooter.Undo()
			return m, m.persist()
		}
		m.guardMsg = "nothing to undo"
		return m, nil

	case "r":
		m.mode = modeConfirmReset
		return m, nil
	}
	return m, nil
}

func (m RunnerModel) updateSkipReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeChecklist
		m.skipInput.Blur()
		return m, nil
	case "enter":
		if err := m.runner.SkipStep(m.skipInput.Value()); err != nil {
			m.guardMsg = err.Error()
			return m, nil
		}
		m.mode = modeChecklist
		m.skipInput.Blur()
		return m, tea.Batch(m.persist(), m.probeImages(m.runner.CurrentStep()))
	}
	var cmd tea.Cmd
	m.skipInput, cmd = m.skipInput.Update(msg)
	return m, cmd
}

func (m RunnerModel) updateTroubleshoot(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" && m.modal.stage == stageCategory {
		m.mode = modeChecklist
		return m, nil
	}
	var cmd tea.Cmd
	m.modal, cmd = m.modal.update(msg)
	if m.modal.done {
		m.mode = modeChecklist
		if m.modal.applied {
			return m, tea.Batch(cmd, m.persist())
		}
	}
	return m, cmd
}

func (m RunnerModel) updateConfirmReset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.runner.ResetAll()
		m.mode = modeChecklist
		m.autoStopped = false
		return m, tea.Batch(m.persist(), m.probeImages(0))
	case "n", "N", "esc":
		m.mode = modeChecklist
		return m, nil
	}
	return m, nil
}

// View renders the runner screen.
func (m RunnerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.mode == modeTroubleshoot {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.modal.view(m.width, contentHeight), helpBar)
	}

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderTimerPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderStepDetailsPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

// renderTimerPanel renders the left panel: header, checklist, clock.
func (m RunnerModel) renderTimerPanel(width, height int) string {
	var components []string

	wi := m.runner.Instruction()
	_, running := m.runner.Running()

	animChars := []string{"⏱", "⏲", "⏱", "⏲"}
	header := fmt.Sprintf("%s  %s · %s  %s",
		animChars[m.timerAnimation], wi.ID, m.runner.Status(), animChars[m.timerAnimation])
	if !running {
		header = fmt.Sprintf("%s · %s", wi.ID, m.runner.Status())
	}
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)
	components = append(components, headerStyle.Render(header))

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)
	components = append(components, titleStyle.Render(truncate(wi.Title, width-4)))

	components = append(components, m.renderChecklist(width))
	components = append(components, m.renderClock(width))

	footer := fmt.Sprintf("session total %s", timeutil.FormatHMS(m.runner.TotalTime()))
	if m.autoStopped {
		footer += "  ·  auto-stopped at target overrun"
	}
	if m.persistErr {
		footer += "  ·  reconnecting…"
	}
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(width)
	components = append(components, footerStyle.Render(footer))

	if m.guardMsg != "" {
		errStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Align(lipgloss.Center).
			Width(width)
		components = append(components, errStyle.Render(m.guardMsg))
	}

	if m.mode == modeSkipReason {
		components = append(components, lipgloss.NewStyle().
			Align(lipgloss.Center).Width(width).
			Render(m.skipInput.View()))
	}
	if m.mode == modeConfirmReset {
		confirmStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning)).
			Bold(true).
			Align(lipgloss.Center).
			Width(width)
		components = append(components, confirmStyle.Render(
			"Reset every step and all recorded times? (y/n)"))
	}

	content := strings.Join(components, "\n\n")
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderChecklist renders one line per step with status icon and time.
func (m RunnerModel) renderChecklist(width int) string {
	wi := m.runner.Instruction()
	var lines []string
	for i, step := range wi.Steps {
		st := m.runner.StatusAt(i)
		marker := "  "
		if i == m.runner.CurrentStep() {
			marker = "▸ "
		}

		t := ""
		switch st {
		case session.StepCompleted:
			t = timeutil.FormatClock(m.runner.StepTime(i))
		case session.StepInProgress:
			t = timeutil.FormatClock(m.runner.Elapsed(i))
		case session.StepSkipped:
			t = "skipped"
		}

		line := fmt.Sprintf("%s%s %s %s", marker, st.Icon(), truncate(step.Title, width-20), t)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(st)))
		if i == m.runner.CurrentStep() {
			style = style.Bold(true)
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

// renderClock renders the current step stopwatch with target context.
func (m RunnerModel) renderClock(width int) string {
	cur := m.runner.CurrentStep()
	elapsed := m.runner.Elapsed(cur)
	target := m.runner.Instruction().TargetTime(cur)

	color := ColorAccentBright
	if target > 0 && elapsed > target {
		color = ColorError
	}
	clock := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Bold(true).
		Render(bigClock(timeutil.FormatClock(elapsed)))

	sub := fmt.Sprintf("step %d of %d", cur+1, len(m.runner.Instruction().Steps))
	if target > 0 {
		sub += fmt.Sprintf("  ·  target %s", timeutil.FormatClock(target))
	}
	subStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))

	block := clock + "\n" + subStyle.Render(sub)
	var out []string
	for _, line := range strings.Split(block, "\n") {
		out = append(out, lipgloss.NewStyle().Align(lipgloss.Center).Width(width).Render(line))
	}
	return strings.Join(out, "\n")
}

// renderStepDetailsPanel renders the right panel with the current step's
// instructions, points, and images.
func (m RunnerModel) renderStepDetailsPanel(width, height int) string {
	cur := m.runner.CurrentStep()
	wi := m.runner.Instruction()
	step := wi.Steps[cur]
	var b strings.Builder

	b.WriteString("\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width - 12).
		Padding(0, 1)
	b.WriteString(titleStyle.Render(fmt.Sprintf("Step %d: %s", cur+1, step.Title)))
	b.WriteString("\n\n")

	if step.Description != "" {
		descStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Width(width - 8).
			Padding(0, 2)
		b.WriteString(descStyle.Render(step.Description))
		b.WriteString("\n\n")
	}

	b.WriteString(renderPointList("Key points", step.KeyPoints, ColorAccentBright, width))
	b.WriteString(renderPointList("Safety", step.SafetyPoints, ColorError, width))

	imgs := images.Resolve(step)
	if len(imgs) > 0 {
		hdr := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).Padding(0, 2)
		b.WriteString(hdr.Render("Reference images"))
		b.WriteString("\n")
		lineStyle := lipgloss.NewStyle().Padding(0, 3)
		for _, img := range imgs {
			var line string
			switch m.tracker.State(cur, img) {
			case images.Loaded:
				line = fmt.Sprintf("🖼  %s", img)
			case images.LoadFailed:
				line = fmt.Sprintf("▨  %s (unavailable)", img)
			default:
				line = fmt.Sprintf("…  %s (loading)", img)
			}
			b.WriteString(lineStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if reason := m.runner.SkipReason(cur); reason != "" {
		reasonStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning)).
			Italic(true).
			Padding(0, 2).
			Width(width - 8)
		b.WriteString(reasonStyle.Render("Skipped earlier: " + reason))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Render(b.String())
}

func renderPointList(title string, points []string, color string, width int) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	hdr := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Padding(0, 2)
	b.WriteString(hdr.Render(title))
	b.WriteString("\n")
	itemStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Padding(0, 3).
		Width(width - 8)
	for _, p := range points {
		b.WriteString(itemStyle.Render("• " + p))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderHelpBar renders the help bar at the bottom
func (m RunnerModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	switch m.mode {
	case modeSkipReason:
		return helpStyle.Render("enter save skip reason · esc cancel")
	case modeTroubleshoot:
		return helpStyle.Render(m.modal.help())
	case modeConfirmReset:
		return helpStyle.Render("y reset everything · n cancel")
	}
	return helpStyle.Render("s start/stop · c complete · k skip · ↑/↓ navigate · t troubleshoot · u undo fix · r reset · q leave")
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
