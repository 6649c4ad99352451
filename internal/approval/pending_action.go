package approval

import (
	"encoding/json"
	"time"

	"github.com/kgraph-labs/actiongate/internal/action"
)

// Status is the lifecycle state of a queued action.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
)

// ParseStatus validates a status string from the outside world.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusExecuted, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// PendingAction is one action plan gated behind human review. The
// store owns the record's lifecycle; callers only hold copies.
type PendingAction struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Status Status `json:"status"`

	ActionPlan action.Plan `json:"action_plan"`

	// Attribution, for audit correlation only.
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`

	// Review metadata.
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// Execution metadata.
	ExecutedAt      *time.Time      `json:"executed_at,omitempty"`
	ExecutionResult json.RawMessage `json:"execution_result,omitempty"`
	ExecutionError  string          `json:"execution_error,omitempty"`
}
