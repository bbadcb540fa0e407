package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's administrative role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// Status represents a user's account status.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended:
		return true
	}
	return false
}

// User is an administrative user of the platform. Deleted users are retained
// as soft-deleted rows and treated as absent by every operation.
type User struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           Role       `json:"role"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// NewUser creates an active member user.
func NewUser(organizationID uuid.UUID, email, name string) User {
	now := time.Now().UTC()
	return User{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Email:          email,
		Name:           name,
		Role:           RoleMember,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsActiveAdmin reports whether the user belongs to the invariant-protected
// qualifying set: an admin that is active and not deleted.
func (u User) IsActiveAdmin() bool {
	return u.Role == RoleAdmin && u.Status == StatusActive && u.DeletedAt == nil
}
