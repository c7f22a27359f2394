package db

import (
	"testing"
	"time"

	"github.com/zhaksylykov/wistep/internal/models"
)

func setupStore(t *testing.T) {
	t.Helper()
	if err := InitializeInMemory(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func testInstruction() *models.WorkInstruction {
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

func TestCreateSessionSizesStepArrays(t *testing.T) {
	setupStore(t)

	session, err := CreateSession("op-7", "Dana Melis", testInstruction(), "MO-2024")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == 0 {
		t.Fatal("store should assign an id")
	}
	if got := len(session.StepStatuses); got != 3 {
		t.Errorf("step statuses length = %d, want 3", got)
	}
	for i, st := range session.StepStatuses {
		if st != "pending" {
			t.Errorf("StepStatuses[%d] = %q, want pending", i, st)
		}
	}
	if session.Status != models.SessionInProgress {
		t.Errorf("status = %q, want in_progress", session.Status)
	}
}

func TestPatchRoundTrip(t *testing.T) {
	setupStore(t)

	session, err := CreateSession("op-7", "Dana Melis", testInstruction(), "MO-2024")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	err = Patch(session.ID, map[string]any{
		"current_step":  1,
		"total_time":    65,
		"step_statuses": []string{"completed", "pending", "pending"},
		"step_times":    []int{65, 0, 0},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	got, err := GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.CurrentStep != 1 || got.TotalTime != 65 {
		t.Errorf("patched fields = step %d / total %d, want 1 / 65", got.CurrentStep, got.TotalTime)
	}
	if got.StepStatuses[0] != "completed" {
		t.Errorf("StepStatuses[0] = %q, want completed", got.StepStatuses[0])
	}
	if got.StepTimes[0] != 65 {
		t.Errorf("StepTimes[0] = %d, want 65", got.StepTimes[0])
	}
	if !got.LastUpdated.After(session.LastUpdated) {
		t.Error("Patch should bump last_updated")
	}
}

func TestLegacyAliasResolution(t *testing.T) {
	setupStore(t)

	// A row written by the old tracker: legacy names only, no status.
	completed := time.Now().Add(-time.Hour)
	legacy := models.WorkSession{
		CreatedBy:   "op-legacy",
		TaskName:    "Old riveting job",
		TaskID:      "WI-OLD",
		AdminStatus: models.ReviewApproved,
		CompletedAt: &completed,
	}
	if err := DB.Create(&legacy).Error; err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}
	// Create fills the status column default; old rows had no status at all.
	if err := DB.Model(&models.WorkSession{}).Where("id = ?", legacy.ID).Update("status", "").Error; err != nil {
		t.Fatalf("clear status: %v", err)
	}

	got, err := GetSession(legacy.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.OperatorID != "op-legacy" {
		t.Errorf("OperatorID = %q, want created_by fallback", got.OperatorID)
	}
	if got.WorkInstructionTitle != "Old riveting job" {
		t.Errorf("WorkInstructionTitle = %q, want task_name fallback", got.WorkInstructionTitle)
	}
	if got.WorkInstructionID != "WI-OLD" {
		t.Errorf("WorkInstructionID = %q, want task_id fallback", got.WorkInstructionID)
	}
	if got.Status != models.SessionCompleted {
		t.Errorf("Status = %q, want completed inferred from completed_at", got.Status)
	}
	if got.ReviewStatus != models.ReviewApproved {
		t.Errorf("ReviewStatus = %q, want admin_status fallback", got.ReviewStatus)
	}

	// Canonical values win over legacy once patched in.
	if err := Patch(legacy.ID, map[string]any{
		"operator_id":            "op-new",
		"work_instruction_title": "Renamed job",
	}); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	got, err = GetSession(legacy.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.OperatorID != "op-new" {
		t.Errorf("OperatorID = %q, canonical should win", got.OperatorID)
	}
	if got.WorkInstructionTitle != "Renamed job" {
		t.Errorf("WorkInstructionTitle = %q, canonical should win", got.WorkInstructionTitle)
	}
}

func TestReviewRequiresCompletedSession(t *testing.T) {
	setupStore(t)

	session, _ := CreateSession("op-7", "Dana Melis", testInstruction(), "MO-2024")
	if err := Review(session.ID, "adm-1", "G. Ruiz", models.ReviewApproved, "looks fine"); err == nil {
		t.Error("review of an in-progress session should fail")
	}

	now := time.Now()
	if err := Patch(session.ID, map[string]any{
		"status":       models.SessionCompleted,
		"completed_at": &now,
	}); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if err := Review(session.ID, "adm-1", "G. Ruiz", models.ReviewApproved, "looks fine"); err != nil {
		t.Fatalf("Review: %v", err)
	}

	got, _ := GetSession(session.ID)
	if got.ReviewStatus != models.ReviewApproved {
		t.Errorf("ReviewStatus = %q, want approved", got.ReviewStatus)
	}
	if got.AdminName != "G. Ruiz" || got.ReviewedAt == nil {
		t.Errorf("review metadata incomplete: %+v", got)
	}
	if err := Review(session.ID, "adm-1", "G. Ruiz", "maybe", ""); err == nil {
		t.Error("unknown review status should be rejected")
	}
}

func TestAddNoteAppends(t *testing.T) {
	setupStore(t)

	session, _ := CreateSession("op-7", "Dana Melis", testInstruction(), "MO-2024")
	if err := AddNote(session.ID, "Dana Melis", "fixture 3 is worn, used 4"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if err := AddNote(session.ID, "G. Ruiz", "noted, ordering replacement"); err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	got, _ := GetSession(session.ID)
	if len(got.Notes) != 2 {
		t.Fatalf("notes length = %d, want 2", len(got.Notes))
	}
	if got.Notes[0].Author != "Dana Melis" || got.Notes[1].Author != "G. Ruiz" {
		t.Errorf("note order wrong: %+v", got.Notes)
	}
}

func TestFindActiveSessionMatchesLegacyIdentity(t *testing.T) {
	setupStore(t)

	legacy := models.WorkSession{
		UserID:   "op-9",
		TaskID:   "WI-100",
		MONumber: "MO-3000",
		Status:   models.SessionInProgress,
	}
	if err := DB.Create(&legacy).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := FindActiveSession("op-9", "WI-100", "MO-3000")
	if err != nil {
		t.Fatalf("FindActiveSession: %v", err)
	}
	if got == nil || got.ID != legacy.ID {
		t.Fatalf("expected the legacy row, got %+v", got)
	}

	none, err := FindActiveSession("op-9", "WI-100", "MO-9999")
	if err != nil {
		t.Fatalf("FindActiveSession: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for unknown MO, got %+v", none)
	}
}
