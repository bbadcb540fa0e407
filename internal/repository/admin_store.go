package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenhq/adminapi/internal/adminops"
	"github.com/lumenhq/adminapi/internal/db"
	"github.com/lumenhq/adminapi/internal/domain"
)

// AdminStore adapts the database connection to the mutation protocol's
// transactional storage interface.
type AdminStore struct {
	conn *db.Connection
}

// NewAdminStore creates a protocol store over the given connection.
func NewAdminStore(conn *db.Connection) *AdminStore {
	return &AdminStore{conn: conn}
}

// WithTx runs fn inside one database transaction.
func (s *AdminStore) WithTx(ctx context.Context, fn func(adminops.Tx) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(adminTx{tx: tx})
	})
}

// adminTx implements adminops.Tx over a live pgx transaction.
type adminTx struct {
	tx pgx.Tx
}

func (t adminTx) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t adminTx) LockActiveAdmins(ctx context.Context) (int, error) {
	return lockActiveAdmins(ctx, t.tx)
}

func (t adminTx) UpdateUserRole(ctx context.Context, id uuid.UUID, role domain.Role, now time.Time) (domain.User, error) {
	row := t.tx.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, organization_id, email, name, role, status, created_at, updated_at, deleted_at`,
		id, role, now,
	)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

func (t adminTx) UpdateUserStatus(ctx context.Context, id uuid.UUID, status domain.Status, now time.Time) (domain.User, error) {
	row := t.tx.QueryRow(ctx, `
		UPDATE users SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, organization_id, email, name, role, status, created_at, updated_at, deleted_at`,
		id, status, now,
	)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to update user status: %w", err)
	}
	return user, nil
}

func (t adminTx) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO audit_log (id, trace_id, actor_id, actor_session_id, action, target_id, field, old_value, new_value, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.TraceID, entry.ActorID, entry.ActorSessionID, entry.Action,
		entry.TargetID, entry.Field, entry.OldValue, entry.NewValue, entry.Reason, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (t adminTx) RevokeUserSessions(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE sessions SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
