package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/listquery"
)

// UserPage is one page of a keyset-paginated user listing. NextCursor is empty
// on the last page.
type UserPage struct {
	Users      []domain.User
	NextCursor string
	HasMore    bool
}

// UserRepository defines the interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context, organizationID *uuid.UUID, query listquery.ListQuery) (UserPage, error)
	// CreateInitialAdminIfNone atomically creates the given admin user when no
	// active admin exists yet. Returns false when one already does.
	CreateInitialAdminIfNone(ctx context.Context, user domain.User) (bool, error)
}

// AuditPage is one page of a keyset-paginated audit listing.
type AuditPage struct {
	Entries    []domain.AuditEntry
	NextCursor string
	HasMore    bool
}

// AuditRepository defines the interface for audit log operations. The log is
// append-only; entries are written inside mutation transactions and never
// modified here.
type AuditRepository interface {
	List(ctx context.Context, query listquery.ListQuery) (AuditPage, error)
}

// SessionRepository defines the interface for session operations
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) (domain.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error)
}

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, org domain.Organization) (domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}
