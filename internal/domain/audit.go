package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of administrative mutation being recorded.
type AuditAction string

const (
	AuditChangeRole   AuditAction = "change_role"
	AuditChangeStatus AuditAction = "change_status"
)

// AuditEntry is an immutable, append-only record of one committed
// administrative mutation. Entries are written atomically inside the mutating
// transaction and never updated or deleted afterwards.
type AuditEntry struct {
	ID             uuid.UUID   `json:"id"`
	TraceID        string      `json:"trace_id"`
	ActorID        uuid.UUID   `json:"actor_id"`
	ActorSessionID uuid.UUID   `json:"actor_session_id"`
	Action         AuditAction `json:"action"`
	TargetID       uuid.UUID   `json:"target_id"`
	Field          string      `json:"field"`
	OldValue       string      `json:"old_value"`
	NewValue       string      `json:"new_value"`
	Reason         string      `json:"reason,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
