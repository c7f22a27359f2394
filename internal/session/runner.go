// Package session implements the timer and step state machine behind a work
// instruction run, plus the troubleshoot corrections that recover from
// operator mistakes.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhaksylykov/wistep/internal/models"
)

// Guard violations. These are ordinary errors surfaced inline to the
// operator; they never reach the store.
var (
	ErrTimerRunning   = errors.New("a step timer is already running, stop it first")
	ErrNoTimer        = errors.New("no step timer is running")
	ErrStepCompleted  = errors.New("step is already completed")
	ErrStepOutOfRange = errors.New("step index out of range")
	ErrEmptyReason    = errors.New("a reason is required")
)

// Clock supplies the current time. Injected so tests can drive the
// stopwatch deterministically.
type Clock func() time.Time

// AutoStop configures the runaway-timer guard. When enabled, a running step
// whose elapsed time exceeds its target by GraceSeconds is stopped
// automatically. Steps without a target (0) never auto-stop.
type AutoStop struct {
	Enabled      bool
	GraceSeconds int
}

// DefaultAutoStop is the out-of-the-box policy: on, five minutes of grace.
func DefaultAutoStop() AutoStop {
	return AutoStop{Enabled: true, GraceSeconds: 300}
}

// Runner owns the live state of one work session: current step, per-step
// statuses and times, the running stopwatch, and the troubleshoot history.
// The stopwatch is wall-clock based: elapsed time for the running step is
// banked + (now - startedAt), never counted from ticks, so a suspended UI
// loses nothing.
type Runner struct {
	instruction *models.WorkInstruction

	statuses    []StepStatus // pending/completed/skipped; in-progress is derived
	stepTimes   []int        // recorded seconds, set when a step completes
	banked      []int        // paused elapsed seconds for not-yet-completed steps
	skipReasons []string
	history     []models.TroubleshootRecord

	currentStep int
	totalTime   int
	status      string
	completedAt *time.Time

	running     bool
	runningStep int
	startedAt   time.Time

	now      Clock
	autoStop AutoStop
}

// NewRunner builds a fresh runner for an instruction, all steps pending.
func NewRunner(wi *models.WorkInstruction, clock Clock, autoStop AutoStop) *Runner {
	if clock == nil {
		clock = time.Now
	}
	n := len(wi.Steps)
	r := &Runner{
		instruction: wi,
		statuses:    make([]StepStatus, n),
		stepTimes:   make([]int, n),
		banked:      make([]int, n),
		skipReasons: make([]string, n),
		status:      models.SessionInProgress,
		now:         clock,
		autoStop:    autoStop,
	}
	for i := range r.statuses {
		r.statuses[i] = StepPending
	}
	return r
}

// Restore rebuilds a runner from a persisted session so an interrupted run
// can be resumed. Arrays shorter than the instruction (schema drift) are
// padded with pending/zero values.
func Restore(wi *models.WorkInstruction, ws *models.WorkSession, clock Clock, autoStop AutoStop) *Runner {
	r := NewRunner(wi, clock, autoStop)
	for i := range r.statuses {
		if i < len(ws.StepStatuses) && ws.StepStatuses[i] != "" {
			r.statuses[i] = StepStatus(ws.StepStatuses[i])
		}
		if i < len(ws.StepTimes) {
			r.stepTimes[i] = ws.StepTimes[i]
		}
		if i < len(ws.SkipReasons) {
			r.skipReasons[i] = ws.SkipReasons[i]
		}
		// A crash mid-step leaves in-progress in the stored array; the timer
		// itself is gone, so the step reverts to pending with no banked time.
		if r.statuses[i] == StepInProgress {
			r.statuses[i] = StepPending
		}
	}
	r.history = append(r.history, ws.TroubleshootHistory...)
	r.totalTime = ws.TotalTime
	r.status = ws.Status
	r.completedAt = ws.CompletedAt
	if ws.CurrentStep >= 0 && ws.CurrentStep < len(r.statuses) {
		r.currentStep = ws.CurrentStep
	}
	return r
}

// Instruction returns the instruction this runner executes.
func (r *Runner) Instruction() *models.WorkInstruction { return r.instruction }

// CurrentStep returns the index the operator is positioned on.
func (r *Runner) CurrentStep() int { return r.currentStep }

// TotalTime returns the accumulated session seconds from completed steps
// and applied corrections.
func (r *Runner) TotalTime() int { return r.totalTime }

// Status returns the session status (in_progress or completed).
func (r *Runner) Status() string { return r.status }

// CompletedAt returns the completion timestamp, nil while in progress.
func (r *Runner) CompletedAt() *time.Time { return r.completedAt }

// Running reports whether a step timer is live, and which step it is on.
func (r *Runner) Running() (int, bool) { return r.runningStep, r.running }

// History returns the applied troubleshoot records, oldest first.
func (r *Runner) History() []models.TroubleshootRecord { return r.history }

// SkipReason returns the recorded reason for a skipped step.
func (r *Runner) SkipReason(index int) string {
	if index < 0 || index >= len(r.skipReasons) {
		return ""
	}
	return r.skipReasons[index]
}

// StatusAt returns the effective status of a step: the stored status, or
// in-progress for the step whose timer is currently running.
func (r *Runner) StatusAt(index int) StepStatus {
	if index < 0 || index >= len(r.statuses) {
		return StepPending
	}
	if r.running && r.runningStep == index {
		return StepInProgress
	}
	return r.statuses[index]
}

// Statuses returns the effective status of every step.
func (r *Runner) Statuses() []StepStatus {
	out := make([]StepStatus, len(r.statuses))
	for i := range r.statuses {
		out[i] = r.StatusAt(i)
	}
	return out
}

// StepTime returns the recorded seconds for a step (0 until completed or
// adjusted).
func (r *Runner) StepTime(index int) int {
	if index < 0 || index >= len(r.stepTimes) {
		return 0
	}
	return r.stepTimes[index]
}

// Elapsed returns the live stopwatch seconds for a step: recorded time for
// completed steps, banked plus the running segment otherwise.
func (r *Runner) Elapsed(index int) int {
	if index < 0 || index >= len(r.statuses) {
		return 0
	}
	if r.statuses[index] == StepCompleted {
		return r.stepTimes[index]
	}
	elapsed := r.banked[index]
	if r.running && r.runningStep == index {
		elapsed += int(r.now().Sub(r.startedAt).Seconds())
	}
	return elapsed
}

// StartStep starts the stopwatch on a step. The step must be pending or
// skipped, and no other timer may be running.
func (r *Runner) StartStep(index int) error {
	if index < 0 || index >= len(r.statuses) {
		return ErrStepOutOfRange
	}
	if r.running {
		return ErrTimerRunning
	}
	if r.statuses[index] == StepCompleted {
		return ErrStepCompleted
	}
	r.running = true
	r.runningStep = index
	r.startedAt = r.now()
	r.currentStep = index
	return nil
}

// StopStep pauses the running stopwatch without changing the step's stored
// status; banked time is retained so the step can be resumed. No-op when
// nothing is running.
func (r *Runner) StopStep() {
	if !r.running {
		return
	}
	r.banked[r.runningStep] += int(r.now().Sub(r.startedAt).Seconds())
	r.running = false
}

// CompleteStep finishes the running step: the stopwatch stops, elapsed
// seconds are recorded, the step becomes completed, totalTime grows by the
// recorded seconds, and the position advances to the next unfinished step.
func (r *Runner) CompleteStep() error {
	if !r.running {
		return ErrNoTimer
	}
	index := r.runningStep
	elapsed := r.banked[index] + int(r.now().Sub(r.startedAt).Seconds())
	r.running = false
	r.finalizeStep(index, elapsed)
	return nil
}

// finalizeStep records a completion time for a step and advances. Shared by
// CompleteStep and the troubleshoot force-complete fixes so the invariants
// (recorded time, advance, session completion) hold on every path.
func (r *Runner) finalizeStep(index, seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	r.statuses[index] = StepCompleted
	r.stepTimes[index] = seconds
	r.banked[index] = 0
	r.totalTime += seconds
	r.advanceFrom(index)
	r.refreshSessionStatus()
}

// SkipStep marks the current step skipped with a reason. No completion time
// is recorded and the session total is untouched. The step may be revisited
// later.
func (r *Runner) SkipStep(reason string) error {
	index := r.currentStep
	if r.statuses[index] == StepCompleted {
		return ErrStepCompleted
	}
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}
	if r.running && r.runningStep == index {
		r.StopStep()
	}
	r.statuses[index] = StepSkipped
	r.skipReasons[index] = reason
	r.advanceFrom(index)
	r.refreshSessionStatus()
	return nil
}

// GoToStep moves the operator position. A timer running on another step is
// auto-stopped first (banking its elapsed time) rather than rejected, the
// less data-lossy policy.
func (r *Runner) GoToStep(index int) error {
	if index < 0 || index >= len(r.statuses) {
		return ErrStepOutOfRange
	}
	if r.running && r.runningStep != index {
		r.StopStep()
	}
	r.currentStep = index
	return nil
}

// ResetAll wipes the run back to the start: every step pending, all times
// zeroed, position at step 0. Destructive; confirmation is the caller's
// concern.
func (r *Runner) ResetAll() {
	r.running = false
	for i := range r.statuses {
		r.statuses[i] = StepPending
		r.stepTimes[i] = 0
		r.banked[i] = 0
		r.skipReasons[i] = ""
	}
	r.totalTime = 0
	r.currentStep = 0
	r.status = models.SessionInProgress
	r.completedAt = nil
}

// ResetStep reverts one step to pending, clearing its recorded time and any
// banked stopwatch time. totalTime drops by whatever the step had
// contributed.
func (r *Runner) ResetStep(index int) error {
	if index < 0 || index >= len(r.statuses) {
		return ErrStepOutOfRange
	}
	if r.running && r.runningStep == index {
		r.running = false
	}
	if r.statuses[index] == StepCompleted {
		r.totalTime -= r.stepTimes[index]
		if r.totalTime < 0 {
			r.totalTime = 0
		}
	}
	r.statuses[index] = StepPending
	r.stepTimes[index] = 0
	r.banked[index] = 0
	r.skipReasons[index] = ""
	r.status = models.SessionInProgress
	r.completedAt = nil
	return nil
}

// SetStepTime installs a corrected recorded time on a completed step,
// adjusting totalTime by the difference. Times clamp at zero.
func (r *Runner) SetStepTime(index, seconds int) error {
	if index < 0 || index >= len(r.statuses) {
		return ErrStepOutOfRange
	}
	if r.statuses[index] != StepCompleted {
		return fmt.Errorf("step %d has no recorded time to adjust", index+1)
	}
	if seconds < 0 {
		seconds = 0
	}
	r.totalTime += seconds - r.stepTimes[index]
	if r.totalTime < 0 {
		r.totalTime = 0
	}
	r.stepTimes[index] = seconds
	return nil
}

// ForceComplete completes a step outside the normal flow with an explicit
// recorded time, stopping its timer if one is running. Used by troubleshoot
// fixes; the same invariants as CompleteStep apply.
func (r *Runner) ForceComplete(index, seconds int) error {
	if index < 0 || index >= len(r.statuses) {
		return ErrStepOutOfRange
	}
	if r.statuses[index] == StepCompleted {
		return ErrStepCompleted
	}
	if r.running && r.runningStep == index {
		r.running = false
	}
	r.finalizeStep(index, seconds)
	return nil
}

// AppendHistory records an applied troubleshoot fix. History is
// append-only.
func (r *Runner) AppendHistory(rec models.TroubleshootRecord) {
	r.history = append(r.history, rec)
}

// CheckAutoStop stops the running timer when the auto-stop policy says the
// step has overrun its target. Returns true when a stop happened. Intended
// to be called from the display tick.
func (r *Runner) CheckAutoStop() bool {
	if !r.autoStop.Enabled || !r.running {
		return false
	}
	target := r.instruction.TargetTime(r.runningStep)
	if target <= 0 {
		return false
	}
	if r.Elapsed(r.runningStep) >= target+r.autoStop.GraceSeconds {
		r.StopStep()
		return true
	}
	return false
}

// advanceFrom moves currentStep to the next unfinished step after index,
// wrapping to the front so earlier skipped steps get revisited.
func (r *Runner) advanceFrom(index int) {
	n := len(r.statuses)
	for off := 1; off <= n; off++ {
		i := (index + off) % n
		if !r.statuses[i].Resolved() {
			r.currentStep = i
			return
		}
	}
	// Everything resolved; stay put.
}

// refreshSessionStatus flips the session to completed once no step remains
// pending or in-progress. The transition is monotonic: completedAt is set
// exactly once and only an explicit reset clears it.
func (r *Runner) refreshSessionStatus() {
	for _, st := range r.statuses {
		if !st.Resolved() {
			return
		}
	}
	if r.status != models.SessionCompleted {
		r.status = models.SessionCompleted
		t := r.now()
		r.completedAt = &t
	}
}

// PatchFields returns the operator-owned columns to persist after a
// mutation, keyed by canonical column name for Store.Patch. Local state is
// always ahead of the store: callers apply the mutation first, then write.
func (r *Runner) PatchFields() map[string]any {
	statuses := make([]string, len(r.statuses))
	for i, st := range r.statuses {
		statuses[i] = string(st)
	}
	return map[string]any{
		"status":               r.status,
		"current_step":         r.currentStep,
		"total_time":           r.totalTime,
		"step_statuses":        statuses,
		"step_times":           append([]int(nil), r.stepTimes...),
		"skip_reasons":         append([]string(nil), r.skipReasons...),
		"troubleshoot_history": append([]models.TroubleshootRecord(nil), r.history...),
		"completed_at":         r.completedAt,
	}
}
