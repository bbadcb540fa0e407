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

// sessionRepository implements SessionRepository
type sessionRepository struct {
	conn *db.Connection
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(conn *db.Connection) SessionRepository {
	return &sessionRepository{conn: conn}
}

// Create creates a new session
func (r *sessionRepository) Create(ctx context.Context, session domain.Session) (domain.Session, error) {
	_, err := r.conn.Pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetByID retrieves a session by ID
func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	var s domain.Session
	err := r.conn.Pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at, revoked_at
		FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}
