package session

import (
	"errors"
	"testing"
	"time"

	"github.com/zhaksylykov/wistep/internal/models"
)

// fakeClock lets tests move wall-clock time by hand.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func threeStepInstruction() *models.WorkInstruction {
	return &models.WorkInstruction{
		ID:    "WI-100",
		Title: "Spindle housing assembly",
		Steps: []models.Step{
			{Title: "Deburr casting", MaxTime: 60},
			{Title: "Press bearings", MaxTime: 30},
			{Title: "Torque end caps", MaxTime: 90},
		},
	}
}

func newTestRunner(t *testing.T) (*Runner, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	r := NewRunner(threeStepInstruction(), clock.now, AutoStop{})
	return r, clock
}

func TestCompleteStepRecordsTimeAndAdvances(t *testing.T) {
	r, clock := newTestRunner(t)

	if err := r.StartStep(0); err != nil {
		t.Fatalf("StartStep: %v", err)
	}
	clock.advance(65 * time.Second)
	if err := r.CompleteStep(); err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}

	if got := r.StepTime(0); got != 65 {
		t.Errorf("StepTime(0) = %d, want 65", got)
	}
	if got := r.StatusAt(0); got != StepCompleted {
		t.Errorf("StatusAt(0) = %s, want completed", got)
	}
	if got := r.CurrentStep(); got != 1 {
		t.Errorf("CurrentStep = %d, want 1", got)
	}
	if got := r.TotalTime(); got != 65 {
		t.Errorf("TotalTime = %d, want 65", got)
	}
	if got := r.Status(); got != models.SessionInProgress {
		t.Errorf("Status = %s, want in_progress", got)
	}
}

func TestStartStopLeavesStatusUntouched(t *testing.T) {
	r, clock := newTestRunner(t)

	for i := 0; i < 3; i++ {
		if err := r.StartStep(0); err != nil {
			t.Fatalf("StartStep round %d: %v", i, err)
		}
		clock.advance(10 * time.Second)
		r.StopStep()
	}

	if got := r.StatusAt(0); got != StepPending {
		t.Errorf("status after start/stop cycles = %s, want pending", got)
	}
	if got := r.Elapsed(0); got != 30 {
		t.Errorf("banked elapsed = %d, want 30", got)
	}
	if got := r.StepTime(0); got != 0 {
		t.Errorf("StepTime before completion = %d, want 0", got)
	}
	if got := r.TotalTime(); got != 0 {
		t.Errorf("TotalTime before completion = %d, want 0", got)
	}
}

func TestStopwatchIsWallClockBased(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	// No ticks happen at all; only wall clock moves.
	clock.advance(42 * time.Minute)
	if got := r.Elapsed(0); got != 42*60 {
		t.Errorf("Elapsed = %d, want %d", got, 42*60)
	}
}

func TestStartGuards(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	if err := r.StartStep(1); !errors.Is(err, ErrTimerRunning) {
		t.Errorf("starting a second step: got %v, want ErrTimerRunning", err)
	}
	clock.advance(5 * time.Second)
	r.CompleteStep()

	if err := r.StartStep(0); !errors.Is(err, ErrStepCompleted) {
		t.Errorf("restarting a completed step: got %v, want ErrStepCompleted", err)
	}
	if err := r.StartStep(9); !errors.Is(err, ErrStepOutOfRange) {
		t.Errorf("out-of-range start: got %v, want ErrStepOutOfRange", err)
	}
}

func TestCompleteStepRequiresRunningTimer(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	clock.advance(10 * time.Second)
	r.CompleteStep()

	before := r.StepTime(0)
	if err := r.CompleteStep(); !errors.Is(err, ErrNoTimer) {
		t.Errorf("second CompleteStep: got %v, want ErrNoTimer", err)
	}
	if got := r.StepTime(0); got != before {
		t.Errorf("StepTime mutated by rejected CompleteStep: %d -> %d", before, got)
	}
}

func TestSkipThenFinishCompletesSession(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	clock.advance(65 * time.Second)
	r.CompleteStep()

	if err := r.SkipStep("blocked by material shortage"); err != nil {
		t.Fatalf("SkipStep: %v", err)
	}
	if got := r.CurrentStep(); got != 2 {
		t.Errorf("CurrentStep after skip = %d, want 2", got)
	}
	if got := r.SkipReason(1); got != "blocked by material shortage" {
		t.Errorf("SkipReason = %q", got)
	}

	r.StartStep(2)
	clock.advance(40 * time.Second)
	r.CompleteStep()

	want := []StepStatus{StepCompleted, StepSkipped, StepCompleted}
	got := r.Statuses()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Statuses[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if r.Status() != models.SessionCompleted {
		t.Errorf("session status = %s, want completed", r.Status())
	}
	if r.CompletedAt() == nil {
		t.Error("CompletedAt should be set on completion")
	}
	if got := r.TotalTime(); got != 105 {
		t.Errorf("TotalTime = %d, want 105 (skip adds nothing)", got)
	}
}

func TestSkipRequiresReason(t *testing.T) {
	r, _ := newTestRunner(t)
	if err := r.SkipStep("   "); !errors.Is(err, ErrEmptyReason) {
		t.Errorf("blank reason: got %v, want ErrEmptyReason", err)
	}
}

func TestSkippedStepCanBeRevisitedAndCompleted(t *testing.T) {
	r, clock := newTestRunner(t)

	r.SkipStep("missing fixture")
	if err := r.StartStep(0); err != nil {
		t.Fatalf("restarting skipped step: %v", err)
	}
	if got := r.StatusAt(0); got != StepInProgress {
		t.Errorf("StatusAt while running = %s, want in-progress", got)
	}
	clock.advance(20 * time.Second)
	r.CompleteStep()
	if got := r.StatusAt(0); got != StepCompleted {
		t.Errorf("StatusAt = %s, want completed", got)
	}
}

func TestExactlyOneStepInProgress(t *testing.T) {
	r, _ := newTestRunner(t)
	r.StartStep(1)
	inProgress := 0
	for _, st := range r.Statuses() {
		if st == StepInProgress {
			inProgress++
		}
	}
	if inProgress != 1 {
		t.Errorf("in-progress count = %d, want 1", inProgress)
	}
}

func TestGoToStepAutoStopsRunningTimer(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	clock.advance(15 * time.Second)
	if err := r.GoToStep(2); err != nil {
		t.Fatalf("GoToStep: %v", err)
	}
	if _, running := r.Running(); running {
		t.Error("timer should have auto-stopped on navigate")
	}
	if got := r.Elapsed(0); got != 15 {
		t.Errorf("banked time lost on navigate: %d, want 15", got)
	}
	if got := r.CurrentStep(); got != 2 {
		t.Errorf("CurrentStep = %d, want 2", got)
	}
}

func TestResetAll(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	clock.advance(65 * time.Second)
	r.CompleteStep()
	r.SkipStep("damaged part")

	r.ResetAll()

	for i, st := range r.Statuses() {
		if st != StepPending {
			t.Errorf("Statuses[%d] = %s, want pending", i, st)
		}
	}
	if r.TotalTime() != 0 {
		t.Errorf("TotalTime = %d, want 0", r.TotalTime())
	}
	if r.CurrentStep() != 0 {
		t.Errorf("CurrentStep = %d, want 0", r.CurrentStep())
	}
	if r.Status() != models.SessionInProgress {
		t.Errorf("session status = %s, want in_progress", r.Status())
	}
	if r.CompletedAt() != nil {
		t.Error("CompletedAt should clear on reset")
	}
}

func TestAutoStopAtTargetOverrun(t *testing.T) {
	clock := newFakeClock()
	r := NewRunner(threeStepInstruction(), clock.now, AutoStop{Enabled: true, GraceSeconds: 30})

	r.StartStep(0) // target 60
	clock.advance(89 * time.Second)
	if r.CheckAutoStop() {
		t.Error("auto-stop fired before target+grace")
	}
	clock.advance(1 * time.Second)
	if !r.CheckAutoStop() {
		t.Error("auto-stop should fire at target+grace")
	}
	if _, running := r.Running(); running {
		t.Error("timer still running after auto-stop")
	}
	if got := r.Elapsed(0); got != 90 {
		t.Errorf("banked elapsed = %d, want 90", got)
	}
}

func TestAutoStopDisabledRunsUnbounded(t *testing.T) {
	clock := newFakeClock()
	r := NewRunner(threeStepInstruction(), clock.now, AutoStop{Enabled: false, GraceSeconds: 30})

	r.StartStep(0)
	clock.advance(2 * time.Hour)
	if r.CheckAutoStop() {
		t.Error("auto-stop fired while disabled")
	}
	if _, running := r.Running(); !running {
		t.Error("timer should still be running")
	}
}

func TestAutoStopIgnoresStepsWithoutTarget(t *testing.T) {
	clock := newFakeClock()
	wi := threeStepInstruction()
	wi.Steps[0].MaxTime = 0
	r := NewRunner(wi, clock.now, DefaultAutoStop())

	r.StartStep(0)
	clock.advance(3 * time.Hour)
	if r.CheckAutoStop() {
		t.Error("auto-stop fired for a step with no target")
	}
}

func TestRestoreResumesPersistedState(t *testing.T) {
	clock := newFakeClock()
	ws := &models.WorkSession{
		Status:       models.SessionInProgress,
		CurrentStep:  2,
		TotalTime:    65,
		StepStatuses: []string{"completed", "skipped", "in-progress"},
		StepTimes:    []int{65, 0, 0},
		SkipReasons:  []string{"", "no material", ""},
	}
	r := Restore(threeStepInstruction(), ws, clock.now, DefaultAutoStop())

	if got := r.StatusAt(0); got != StepCompleted {
		t.Errorf("StatusAt(0) = %s, want completed", got)
	}
	// A stored in-progress marker means the old process died mid-step; the
	// step comes back pending with no timer.
	if got := r.StatusAt(2); got != StepPending {
		t.Errorf("StatusAt(2) = %s, want pending", got)
	}
	if got := r.TotalTime(); got != 65 {
		t.Errorf("TotalTime = %d, want 65", got)
	}
	if got := r.SkipReason(1); got != "no material" {
		t.Errorf("SkipReason(1) = %q", got)
	}
	if got := r.CurrentStep(); got != 2 {
		t.Errorf("CurrentStep = %d, want 2", got)
	}
}

func TestPatchFieldsReflectsLocalState(t *testing.T) {
	r, clock := newTestRunner(t)

	r.StartStep(0)
	clock.advance(65 * time.Second)
	r.CompleteStep()

	fields := r.PatchFields()
	if fields["total_time"].(int) != 65 {
		t.Errorf("total_time = %v, want 65", fields["total_time"])
	}
	if fields["current_step"].(int) != 1 {
		t.Errorf("current_step = %v, want 1", fields["current_step"])
	}
	statuses := fields["step_statuses"].([]string)
	if statuses[0] != "completed" {
		t.Errorf("step_statuses[0] = %q, want completed", statuses[0])
	}
	if fields["completed_at"].(*time.Time) != nil {
		t.Error("completed_at should be nil while in progress")
	}
}
