package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant in the system. Tenants scope the data their
// users administer; the active-admin invariant itself is platform-wide.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrganization creates a new organization.
func NewOrganization(name string) Organization {
	now := time.Now().UTC()
	return Organization{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
