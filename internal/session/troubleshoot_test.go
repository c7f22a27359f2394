package session

import (
	"testing"
	"time"
)

func action(categoryID string, kind FixKind, t *testing.T) FixAction {
	t.Helper()
	cat, ok := FindCategory(categoryID)
	if !ok {
		t.Fatalf("category %q not in catalog", categoryID)
	}
	for _, a := range cat.Actions {
		if a.Kind == kind {
			return a
		}
	}
	t.Fatalf("category %q has no %s action", categoryID, kind)
	return FixAction{}
}

func TestAdjustTimeUndoInverseLaw(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(65 * time.Second)
	r.CompleteStep()

	fix := action("manual-entry", FixAdjustTime, t)
	if err := ts.Request("manual-entry", fix, FixParams{StepIndex: 0, NewTime: 50, Reason: "misread stopwatch"}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := r.StepTime(0); got != 50 {
		t.Errorf("StepTime after adjust = %d, want 50", got)
	}
	if got := r.TotalTime(); got != 50 {
		t.Errorf("TotalTime after adjust = %d, want 50", got)
	}

	ts.Undo()
	if got := r.StepTime(0); got != 65 {
		t.Errorf("StepTime after undo = %d, want 65", got)
	}
	if got := r.TotalTime(); got != 65 {
		t.Errorf("TotalTime after undo = %d, want 65", got)
	}

	// Second undo is a no-op: the register cleared after use.
	ts.Undo()
	if got := r.StepTime(0); got != 65 {
		t.Errorf("StepTime after double undo = %d, want 65", got)
	}
}

func TestResetStepAfterRunawayTimer(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(500 * time.Second)

	fix := action("time-too-long", FixResetStep, t)
	if err := ts.Request("time-too-long", fix, FixParams{StepIndex: 0, Reason: "left timer running over lunch"}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, ok := ts.Pending(); !ok {
		t.Fatal("reset-step should wait for confirmation")
	}
	// Nothing mutates before the second confirmation signal.
	if got := r.StatusAt(0); got != StepInProgress {
		t.Errorf("status mutated before confirm: %s", got)
	}

	if err := ts.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := r.StatusAt(0); got != StepPending {
		t.Errorf("StatusAt after reset = %s, want pending", got)
	}
	if got := r.StepTime(0); got != 0 {
		t.Errorf("StepTime after reset = %d, want 0", got)
	}
	// The step was never completed, so nothing had reached totalTime.
	if got := r.TotalTime(); got != 0 {
		t.Errorf("TotalTime after reset = %d, want 0", got)
	}
}

func TestConfirmationSlotOverwritesNotQueues(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(10 * time.Second)

	reset := action("time-too-long", FixResetStep, t)
	target := action("stop-forgotten", FixUseTargetTime, t)

	ts.Request("time-too-long", reset, FixParams{StepIndex: 0})
	ts.Request("stop-forgotten", target, FixParams{StepIndex: 0})

	if err := ts.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	// Only the second request survived the slot: step completed with the
	// 60s target, not reset.
	if got := r.StatusAt(0); got != StepCompleted {
		t.Errorf("StatusAt = %s, want completed", got)
	}
	if got := r.StepTime(0); got != 60 {
		t.Errorf("StepTime = %d, want target 60", got)
	}
	if err := ts.Confirm(); err != nil {
		t.Errorf("Confirm on empty slot should be a no-op, got %v", err)
	}
}

func TestDismissDropsPendingFix(t *testing.T) {
	r, _ := newTestRunner(t)
	ts := NewTroubleshooter(r)

	reset := action("time-too-long", FixResetStep, t)
	ts.Request("time-too-long", reset, FixParams{StepIndex: 0})
	ts.Dismiss()
	if _, ok := ts.Pending(); ok {
		t.Error("pending slot should be empty after Dismiss")
	}
	if err := ts.Confirm(); err != nil {
		t.Errorf("Confirm after Dismiss: %v", err)
	}
}

func TestForceCompleteKeepsStateMachineInvariants(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(45 * time.Second)
	r.StopStep()

	fix := action("complete-forgotten", FixForceComplete, t)
	if err := ts.Request("complete-forgotten", fix, FixParams{StepIndex: 0, Reason: "forgot to hit complete"}); err != nil {
		t.Fatalf("Request: %v", err)
	}

	// The forced completion behaves exactly like CompleteStep: recorded
	// time, advanced position, totalTime credit.
	if got := r.StepTime(0); got != 45 {
		t.Errorf("StepTime = %d, want 45", got)
	}
	if got := r.CurrentStep(); got != 1 {
		t.Errorf("CurrentStep = %d, want 1", got)
	}
	if got := r.TotalTime(); got != 45 {
		t.Errorf("TotalTime = %d, want 45", got)
	}
}

func TestEveryFixAppendsOneHistoryRecord(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(65 * time.Second)
	r.CompleteStep()

	fix := action("manual-entry", FixAdjustTime, t)
	ts.Request("manual-entry", fix, FixParams{StepIndex: 0, NewTime: 50, Reason: "misread stopwatch"})

	hist := r.History()
	if len(hist) != 1 {
		t.Fatalf("history length = %d, want 1", len(hist))
	}
	rec := hist[0]
	if rec.Type != "manual-entry" || rec.Action != string(FixAdjustTime) {
		t.Errorf("record = %+v", rec)
	}
	if rec.OriginalTime != 65 || rec.AdjustedTime != 50 {
		t.Errorf("times = %d -> %d, want 65 -> 50", rec.OriginalTime, rec.AdjustedTime)
	}
	if rec.Reason != "misread stopwatch" {
		t.Errorf("reason = %q", rec.Reason)
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp missing")
	}

	// Undo appends rather than rewriting history.
	ts.Undo()
	if got := len(r.History()); got != 2 {
		t.Errorf("history length after undo = %d, want 2", got)
	}
	if r.History()[0] != rec {
		t.Error("existing history record was modified")
	}
}

func TestStopAndAdjustCompletesWithEnteredTime(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(40 * time.Minute) // operator forgot the timer

	fix := action("stop-forgotten", FixStopAndAdjust, t)
	if err := ts.Request("stop-forgotten", fix, FixParams{StepIndex: 0, NewTime: 55, Reason: "timer left running"}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, running := r.Running(); running {
		t.Error("timer should be stopped by the fix")
	}
	if got := r.StepTime(0); got != 55 {
		t.Errorf("StepTime = %d, want 55", got)
	}
	if got := r.History()[0].OriginalTime; got != 40*60 {
		t.Errorf("OriginalTime = %d, want %d", got, 40*60)
	}
}

func TestAdjustTimeNeverGoesNegative(t *testing.T) {
	r, clock := newTestRunner(t)
	ts := NewTroubleshooter(r)

	r.StartStep(0)
	clock.advance(10 * time.Second)
	r.CompleteStep()

	fix := action("manual-entry", FixAdjustTime, t)
	if err := ts.Request("manual-entry", fix, FixParams{StepIndex: 0, NewTime: -20}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := r.StepTime(0); got != 0 {
		t.Errorf("StepTime = %d, want clamp to 0", got)
	}
	if got := r.TotalTime(); got != 0 {
		t.Errorf("TotalTime = %d, want 0", got)
	}
}
