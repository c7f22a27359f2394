package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zhaksylykov/wistep/internal/models"
)

// Patch retry policy for transient failures. Package vars so tests can
// tighten them.
var (
	patchAttempts = 3
	patchBackoff  = 100 * time.Millisecond
)

// jsonColumns are the serializer:json columns. Updates with a map bypasses
// gorm's field serializers, so Patch marshals these itself.
var jsonColumns = map[string]bool{
	"step_statuses":        true,
	"step_times":           true,
	"skip_reasons":         true,
	"troubleshoot_history": true,
	"notes":                true,
}

// CreateSession persists a new work session for an operator starting an
// instruction. Step arrays are sized to the instruction up front so
// index-aligned invariants hold from the first write.
func CreateSession(operatorID, operatorName string, wi *models.WorkInstruction, moNumber string) (*models.WorkSession, error) {
	statuses := make([]string, len(wi.Steps))
	for i := range statuses {
		statuses[i] = "pending"
	}
	session := models.WorkSession{
		OperatorID:           operatorID,
		OperatorName:         operatorName,
		WorkInstructionID:    wi.ID,
		WorkInstructionTitle: wi.Title,
		MONumber:             moNumber,
		Status:               models.SessionInProgress,
		StepStatuses:         statuses,
		StepTimes:            make([]int, len(wi.Steps)),
		SkipReasons:          make([]string, len(wi.Steps)),
		LastUpdated:          time.Now(),
	}
	if err := DB.Create(&session).Error; err != nil {
		return nil, Classify(err)
	}
	return &session, nil
}

// FindActiveSession returns the operator's in-progress session for an
// instruction and MO, nil when there is none. Lets a run be resumed instead
// of duplicated.
func FindActiveSession(operatorID, instructionID, moNumber string) (*models.WorkSession, error) {
	var session models.WorkSession
	err := DB.Where(
		"status = ? AND mo_number = ? AND (work_instruction_id = ? OR task_id = ?) AND (operator_id = ? OR created_by = ? OR user_id = ?)",
		models.SessionInProgress, moNumber, instructionID, instructionID,
		operatorID, operatorID, operatorID,
	).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, Classify(err)
	}
	normalize(&session)
	return &session, nil
}

// GetSession loads one session by id with legacy aliases resolved.
func GetSession(id uint) (*models.WorkSession, error) {
	var session models.WorkSession
	if err := DB.First(&session, id).Error; err != nil {
		return nil, Classify(fmt.Errorf("session #%d not found: %w", id, err))
	}
	normalize(&session)
	return &session, nil
}

// Patch applies a partial update to a session. The write is incremental
// (only the given columns), bumps last_updated, and retries transient
// failures with backoff. Guard failures upstream never reach here; a
// failed patch never rolls back local state.
func Patch(id uint, fields map[string]any) error {
	updates := make(map[string]any, len(fields)+1)
	for col, val := range fields {
		if jsonColumns[col] {
			data, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("encode %s: %w", col, err)
			}
			updates[col] = string(data)
		} else {
			updates[col] = val
		}
	}
	updates["last_updated"] = time.Now()

	var err error
	for attempt := 0; attempt < patchAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(patchBackoff << (attempt - 1))
		}
		err = Classify(DB.Model(&models.WorkSession{}).Where("id = ?", id).Updates(updates).Error)
		if err == nil || !Retryable(err) {
			return err
		}
	}
	return err
}

// Review writes the admin verdict on a completed session. Review columns
// are disjoint from the operator-owned ones, so the two writers cannot
// conflict.
func Review(id uint, adminID, adminName, status, comment string) error {
	if status != models.ReviewApproved && status != models.ReviewRejected {
		return fmt.Errorf("invalid review status %q", status)
	}
	session, err := GetSession(id)
	if err != nil {
		return err
	}
	if session.Status != models.SessionCompleted {
		return fmt.Errorf("session #%d is still in progress", id)
	}
	now := time.Now()
	return Classify(DB.Model(&models.WorkSession{}).Where("id = ?", id).Updates(map[string]any{
		"review_status": status,
		"admin_comment": comment,
		"admin_id":      adminID,
		"admin_name":    adminName,
		"reviewed_at":   &now,
	}).Error)
}

// AddNote appends one entry to a session's note log. Notes are
// append-only.
func AddNote(id uint, author, text string) error {
	session, err := GetSession(id)
	if err != nil {
		return err
	}
	notes := append(session.Notes, models.SessionNote{
		Author:    author,
		Text:      text,
		Timestamp: time.Now(),
	})
	return Patch(id, map[string]any{"notes": notes})
}

// normalize resolves the legacy field aliases into the canonical columns,
// canonical-first. This is the only place the aliasing table lives.
func normalize(s *models.WorkSession) {
	if s.OperatorID == "" {
		if s.CreatedBy != "" {
			s.OperatorID = s.CreatedBy
		} else {
			s.OperatorID = s.UserID
		}
	}
	if s.WorkInstructionTitle == "" {
		s.WorkInstructionTitle = s.TaskName
	}
	if s.WorkInstructionID == "" {
		s.WorkInstructionID = s.TaskID
	}
	if s.Status == "" {
		// Rows predating the status column: a set completion timestamp is
		// the only signal left.
		if s.CompletedAt != nil {
			s.Status = models.SessionCompleted
		} else {
			s.Status = models.SessionInProgress
		}
	}
	if s.ReviewStatus == "" {
		if s.AdminStatus != "" {
			s.ReviewStatus = s.AdminStatus
		} else if s.Status == models.SessionCompleted {
			s.ReviewStatus = models.ReviewPending
		}
	}
	if s.LastUpdated.IsZero() {
		s.LastUpdated = s.UpdatedAt
	}
}
