package session

// StepStatus is the execution state of a single instruction step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
)

// Label returns the display name for a status.
func (s StepStatus) Label() string {
	switch s {
	case StepInProgress:
		return "in progress"
	case StepCompleted:
		return "completed"
	case StepSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Icon returns the checklist marker for a status.
func (s StepStatus) Icon() string {
	switch s {
	case StepInProgress:
		return "▶"
	case StepCompleted:
		return "✓"
	case StepSkipped:
		return "↷"
	default:
		return "○"
	}
}

// Resolved reports whether the step no longer blocks session completion.
// Skipped counts as resolved: a session with every step completed or skipped
// is done, though a skipped step may still be revisited before then.
func (s StepStatus) Resolved() bool {
	return s == StepCompleted || s == StepSkipped
}
