package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenhq/adminapi/internal/db"
	"github.com/lumenhq/adminapi/internal/domain"
)

// organizationRepository implements OrganizationRepository
type organizationRepository struct {
	conn *db.Connection
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(conn *db.Connection) OrganizationRepository {
	return &organizationRepository{conn: conn}
}

// Create creates a new organization
func (r *organizationRepository) Create(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	_, err := r.conn.Pool.Exec(ctx, `
		INSERT INTO organizations (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
		org.ID, org.Name, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to create organization: %w", err)
	}
	return org, nil
}

// GetByID retrieves an organization by ID
func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	var org domain.Organization
	err := r.conn.Pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1`, id,
	).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Organization{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// List retrieves all organizations
func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.conn.Pool.Query(ctx, `
		SELECT id, name, created_at, updated_at FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	return orgs, nil
}
