package models

import (
	"time"

	"gorm.io/gorm"
)

// Session status values. A session is in_progress from creation until every
// step is resolved; the transition to completed is monotonic and only an
// explicit reset reopens it.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// Admin review status values, orthogonal to the session status.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// TroubleshootRecord is one applied correction. History is append-only:
// records are never edited or removed.
type TroubleshootRecord struct {
	Type         string    `json:"type"`   // category id, e.g. "time-too-long"
	Action       string    `json:"action"` // fix kind, e.g. "ADJUST_TIME"
	StepIndex    int       `json:"step_index"`
	OriginalTime int       `json:"original_time"`
	AdjustedTime int       `json:"adjusted_time"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionNote is one entry in a session's collaborative note log.
type SessionNote struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkSession represents one operator's timed execution attempt of a work
// instruction. Canonical columns are written by this tool; the legacy
// columns (CreatedBy, UserID, TaskName, TaskID, AdminStatus) only appear in
// rows imported from the old tracker and are resolved once at the store
// boundary, never at use sites.
type WorkSession struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OperatorID   string `json:"operator_id"`
	OperatorName string `json:"operator_name"`

	WorkInstructionID    string `json:"work_instruction_id"`
	WorkInstructionTitle string `json:"work_instruction_title"`
	MONumber             string `json:"mo_number"`

	Status      string     `gorm:"default:in_progress" json:"status"`
	CurrentStep int        `json:"current_step"`
	TotalTime   int        `json:"total_time"` // seconds
	CompletedAt *time.Time `json:"completed_at"`
	LastUpdated time.Time  `json:"last_updated"`

	StepStatuses        []string             `gorm:"serializer:json" json:"step_statuses"`
	StepTimes           []int                `gorm:"serializer:json" json:"step_times"` // recorded seconds per step
	SkipReasons         []string             `gorm:"serializer:json" json:"skip_reasons"`
	TroubleshootHistory []TroubleshootRecord `gorm:"serializer:json" json:"troubleshoot_history"`
	Notes               []SessionNote        `gorm:"serializer:json" json:"notes"`

	// Review metadata, written only by an admin actor. Disjoint from the
	// operator-owned fields above so the two writers never conflict.
	ReviewStatus string     `json:"review_status"`
	AdminComment string     `json:"admin_comment"`
	AdminID      string     `json:"admin_id"`
	AdminName    string     `json:"admin_name"`
	ReviewedAt   *time.Time `json:"reviewed_at"`

	// Legacy aliases from the previous tracker schema. Read-only fallbacks.
	CreatedBy   string `json:"created_by,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	TaskName    string `json:"task_name,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
	AdminStatus string `json:"admin_status,omitempty"`
}

// StepCount returns the number of steps tracked by the session.
func (s *WorkSession) StepCount() int {
	return len(s.StepStatuses)
}

// CompletedSteps counts steps recorded as completed.
func (s *WorkSession) CompletedSteps() int {
	n := 0
	for _, st := range s.StepStatuses {
		if st == "completed" {
			n++
		}
	}
	return n
}
