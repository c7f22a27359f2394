package session

import (
	"fmt"
	"time"

	"github.com/zhaksylykov/wistep/internal/models"
)

// FixKind is the mutation a troubleshoot action performs on the run.
type FixKind string

const (
	FixStopAndAdjust       FixKind = "STOP_AND_ADJUST"
	FixUseTargetTime       FixKind = "USE_TARGET_TIME"
	FixForceComplete       FixKind = "FORCE_COMPLETE"
	FixForceCompleteTarget FixKind = "FORCE_COMPLETE_TARGET"
	FixResetStep           FixKind = "RESET_STEP"
	FixAdjustTime          FixKind = "ADJUST_TIME"

	// actionUndo marks history entries written by Undo; it is not a
	// requestable fix.
	actionUndo = "UNDO"
)

// FixAction is one selectable recovery action inside a category.
type FixAction struct {
	Kind        FixKind
	Label       string
	NeedsTime   bool // action consumes an operator-entered time
	Confirm     bool // must pass the confirmation gate before applying
	ConfirmText string
}

// Category groups the fix actions offered for one kind of operator mistake.
type Category struct {
	ID      string
	Title   string
	Prompt  string
	Actions []FixAction
}

// Catalog returns the troubleshoot categories in display order.
func Catalog() []Category {
	return []Category{
		{
			ID:     "stop-forgotten",
			Title:  "Forgot to stop the timer",
			Prompt: "The timer kept running after the work was done.",
			Actions: []FixAction{
				{Kind: FixStopAndAdjust, Label: "Stop and enter the real time", NeedsTime: true},
				{Kind: FixUseTargetTime, Label: "Stop and use the step's target time",
					Confirm: true, ConfirmText: "Replace the recorded time with the step target?"},
			},
		},
		{
			ID:     "complete-forgotten",
			Title:  "Forgot to mark the step complete",
			Prompt: "The step was finished but never marked complete.",
			Actions: []FixAction{
				{Kind: FixForceComplete, Label: "Complete with the elapsed time"},
				{Kind: FixForceCompleteTarget, Label: "Complete with the target time",
					Confirm: true, ConfirmText: "Complete this step with its target time instead of the stopwatch?"},
			},
		},
		{
			ID:     "time-too-long",
			Title:  "Recorded time is way too long",
			Prompt: "The recorded time does not reflect the actual work.",
			Actions: []FixAction{
				{Kind: FixAdjustTime, Label: "Enter the correct time", NeedsTime: true},
				{Kind: FixResetStep, Label: "Reset the step and redo it",
					Confirm: true, ConfirmText: "Reset this step to pending and discard its time?"},
			},
		},
		{
			ID:     "manual-entry",
			Title:  "Enter a time manually",
			Prompt: "Set a step's time from a duration or a start/end pair.",
			Actions: []FixAction{
				{Kind: FixAdjustTime, Label: "Set the step time", NeedsTime: true},
			},
		},
	}
}

// FindCategory looks a category up by id.
func FindCategory(id string) (Category, bool) {
	for _, c := range Catalog() {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// FixParams carries the operator's inputs for a fix.
type FixParams struct {
	StepIndex int
	NewTime   int // seconds, consumed by actions with NeedsTime
	Reason    string
}

// stepSnapshot captures everything a fix can touch about one step plus the
// session-level aggregates, so Undo can restore the exact pre-fix state.
type stepSnapshot struct {
	index       int
	status      StepStatus
	stepTime    int
	banked      int
	skipReason  string
	totalTime   int
	sessStatus  string
	completedAt *time.Time
	currentStep int
	category    string
	adjusted    int
}

// pendingFix is the single-slot confirmation register. A new request
// overwrites it; nothing is queued.
type pendingFix struct {
	category string
	action   FixAction
	params   FixParams
	message  string
}

// Troubleshooter applies catalog fixes to a Runner. It never bypasses the
// runner's invariants: every mutation goes through ForceComplete,
// SetStepTime or ResetStep, so forced completions still record times and
// advance the position like a normal CompleteStep.
type Troubleshooter struct {
	runner  *Runner
	pending *pendingFix
	last    *stepSnapshot // single-slot undo register
}

// NewTroubleshooter wires a correction engine to a runner.
func NewTroubleshooter(r *Runner) *Troubleshooter {
	return &Troubleshooter{runner: r}
}

// Request asks for a fix. Actions gated behind confirmation land in the
// pending slot and nothing mutates until Confirm; everything else applies
// immediately.
func (t *Troubleshooter) Request(categoryID string, action FixAction, params FixParams) error {
	if action.Confirm {
		msg := action.ConfirmText
		if msg == "" {
			msg = fmt.Sprintf("Apply %q to step %d?", action.Label, params.StepIndex+1)
		}
		t.pending = &pendingFix{category: categoryID, action: action, params: params, message: msg}
		return nil
	}
	return t.apply(categoryID, action, params)
}

// Pending returns the held confirmation message, if any.
func (t *Troubleshooter) Pending() (string, bool) {
	if t.pending == nil {
		return "", false
	}
	return t.pending.message, true
}

// Confirm applies the held fix. No-op without a pending fix.
func (t *Troubleshooter) Confirm() error {
	if t.pending == nil {
		return nil
	}
	p := t.pending
	t.pending = nil
	return t.apply(p.category, p.action, p.params)
}

// Dismiss drops the held fix without applying it.
func (t *Troubleshooter) Dismiss() {
	t.pending = nil
}

// CanUndo reports whether an applied fix is available to undo.
func (t *Troubleshooter) CanUndo() bool { return t.last != nil }

// Undo restores the state captured before the most recent fix. One level
// only: the register clears after use, so a second Undo is a no-op.
func (t *Troubleshooter) Undo() {
	if t.last == nil {
		return
	}
	snap := t.last
	t.last = nil

	r := t.runner
	r.statuses[snap.index] = snap.status
	r.stepTimes[snap.index] = snap.stepTime
	r.banked[snap.index] = snap.banked
	r.skipReasons[snap.index] = snap.skipReason
	r.totalTime = snap.totalTime
	r.status = snap.sessStatus
	r.completedAt = snap.completedAt
	r.currentStep = snap.currentStep

	r.AppendHistory(models.TroubleshootRecord{
		Type:         snap.category,
		Action:       actionUndo,
		StepIndex:    snap.index,
		OriginalTime: snap.adjusted,
		AdjustedTime: snap.stepTime,
		Reason:       "undo last troubleshoot fix",
		Timestamp:    r.now(),
	})
}

func (t *Troubleshooter) apply(categoryID string, action FixAction, params FixParams) error {
	r := t.runner
	index := params.StepIndex
	if index < 0 || index >= len(r.statuses) {
		return ErrStepOutOfRange
	}

	snap := &stepSnapshot{
		index:       index,
		status:      r.statuses[index],
		stepTime:    r.stepTimes[index],
		banked:      r.banked[index],
		skipReason:  r.skipReasons[index],
		totalTime:   r.totalTime,
		sessStatus:  r.status,
		completedAt: r.completedAt,
		currentStep: r.currentStep,
		category:    categoryID,
	}
	original := r.Elapsed(index)

	var err error
	switch action.Kind {
	case FixStopAndAdjust:
		err = r.ForceComplete(index, params.NewTime)
	case FixUseTargetTime:
		target := r.instruction.TargetTime(index)
		if r.statuses[index] == StepCompleted {
			err = r.SetStepTime(index, target)
		} else {
			err = r.ForceComplete(index, target)
		}
	case FixForceComplete:
		err = r.ForceComplete(index, r.Elapsed(index))
	case FixForceCompleteTarget:
		err = r.ForceComplete(index, r.instruction.TargetTime(index))
	case FixResetStep:
		err = r.ResetStep(index)
	case FixAdjustTime:
		if r.statuses[index] == StepCompleted {
			err = r.SetStepTime(index, params.NewTime)
		} else {
			err = r.ForceComplete(index, params.NewTime)
		}
	default:
		err = fmt.Errorf("unknown fix action %q", action.Kind)
	}
	if err != nil {
		return err
	}

	adjusted := r.stepTimes[index]
	snap.adjusted = adjusted
	t.last = snap

	r.AppendHistory(models.TroubleshootRecord{
		Type:         categoryID,
		Action:       string(action.Kind),
		StepIndex:    index,
		OriginalTime: original,
		AdjustedTime: adjusted,
		Reason:       params.Reason,
		Timestamp:    r.now(),
	})
	return nil
}
