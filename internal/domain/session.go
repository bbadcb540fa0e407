package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated session belonging to a user. Suspending a user
// revokes all of their sessions in the same transaction as the status change.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Live reports whether the session is usable at the given instant.
func (s Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
