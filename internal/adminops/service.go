// Package adminops implements the invariant-protected mutation protocol for
// administrative role and status changes. Every mutation runs inside one
// storage transaction with a bounded retry wrapper; the protocol guarantees
// that at least one active administrator exists after any committed mutation.
package adminops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumenhq/adminapi/internal/domain"
)

// Tx is the transactional storage capability the protocol needs. Every method
// runs against the same transaction; nothing commits until the protocol
// function returns nil.
type Tx interface {
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	// LockActiveAdmins locks the full qualifying set (role=admin, status=active,
	// not deleted) with SELECT ... FOR UPDATE semantics and returns its size.
	LockActiveAdmins(ctx context.Context) (int, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role domain.Role, now time.Time) (domain.User, error)
	UpdateUserStatus(ctx context.Context, id uuid.UUID, status domain.Status, now time.Time) (domain.User, error)
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
	RevokeUserSessions(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
}

// Store opens transactions for the protocol.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// SessionInvalidator drops cached sessions for a user. Invalidation happens
// after commit and is best-effort; the database remains the source of truth.
type SessionInvalidator interface {
	PurgeUser(ctx context.Context, userID uuid.UUID) error
}

// Outcome tags the result of a mutation.
type Outcome int

const (
	// OutcomeOK means the mutation was applied, or was an idempotent no-op.
	OutcomeOK Outcome = iota
	// OutcomeNotFound means the target does not exist or is soft-deleted.
	OutcomeNotFound
	// OutcomeLastAdmin means the mutation would have removed the last active
	// administrator and was refused.
	OutcomeLastAdmin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeLastAdmin:
		return "last_admin"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the tagged outcome of one mutation. User is populated on OutcomeOK.
type Result struct {
	Outcome Outcome
	User    domain.User
}

// ChangeRoleInput describes a requested role change.
type ChangeRoleInput struct {
	ActorID        uuid.UUID
	ActorSessionID uuid.UUID
	TraceID        string
	TargetID       uuid.UUID
	NewRole        domain.Role
	Reason         string
	Now            time.Time
}

// ChangeStatusInput describes a requested status change.
type ChangeStatusInput struct {
	ActorID        uuid.UUID
	ActorSessionID uuid.UUID
	TraceID        string
	TargetID       uuid.UUID
	NewStatus      domain.Status
	Reason         string
	Now            time.Time
}

// Service executes role/status mutations under the protocol.
type Service struct {
	store       Store
	sessions    SessionInvalidator
	logger      *slog.Logger
	maxAttempts int
}

// Option customizes a Service.
type Option func(*Service)

// WithSessionInvalidator purges the session cache after a suspension commits.
func WithSessionInvalidator(inv SessionInvalidator) Option {
	return func(s *Service) { s.sessions = inv }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxAttempts overrides the transaction attempt bound.
func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// NewService creates a protocol service over the given store.
func NewService(store Store, opts ...Option) *Service {
	service := &Service{
		store:       store,
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ChangeRole applies a role change under the protocol. The active-admin row
// set is locked only on the branch that can violate the invariant, so
// promotions and changes to non-admin users never contend on it.
func (s *Service) ChangeRole(ctx context.Context, in ChangeRoleInput) (Result, error) {
	if !in.NewRole.Valid() {
		return Result{}, fmt.Errorf("invalid role %q", in.NewRole)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var result Result
	err := s.runTx(ctx, func(tx Tx) error {
		result = Result{}

		user, err := tx.GetUser(ctx, in.TargetID)
		if errors.Is(err, domain.ErrNotFound) {
			result.Outcome = OutcomeNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load target user: %w", err)
		}
		if user.DeletedAt != nil {
			result.Outcome = OutcomeNotFound
			return nil
		}

		// Idempotent no-op: no lock, no audit.
		if user.Role == in.NewRole {
			result = Result{Outcome: OutcomeOK, User: user}
			return nil
		}

		if user.IsActiveAdmin() && in.NewRole != domain.RoleAdmin {
			count, err := tx.LockActiveAdmins(ctx)
			if err != nil {
				return fmt.Errorf("failed to lock active admins: %w", err)
			}
			if count <= 1 {
				result.Outcome = OutcomeLastAdmin
				return nil
			}
		}

		updated, err := tx.UpdateUserRole(ctx, user.ID, in.NewRole, now)
		if err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		if err := tx.AppendAudit(ctx, domain.AuditEntry{
			ID:             uuid.New(),
			TraceID:        in.TraceID,
			ActorID:        in.ActorID,
			ActorSessionID: in.ActorSessionID,
			Action:         domain.AuditChangeRole,
			TargetID:       user.ID,
			Field:          "role",
			OldValue:       string(user.Role),
			NewValue:       string(in.NewRole),
			Reason:         in.Reason,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("failed to append audit record: %w", err)
		}

		result = Result{Outcome: OutcomeOK, User: updated}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// ChangeStatus applies a status change under the protocol. Suspension also
// revokes the target's sessions inside the same transaction and purges the
// session cache after commit.
func (s *Service) ChangeStatus(ctx context.Context, in ChangeStatusInput) (Result, error) {
	if !in.NewStatus.Valid() {
		return Result{}, fmt.Errorf("invalid status %q", in.NewStatus)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var result Result
	err := s.runTx(ctx, func(tx Tx) error {
		result = Result{}

		user, err := tx.GetUser(ctx, in.TargetID)
		if errors.Is(err, domain.ErrNotFound) {
			result.Outcome = OutcomeNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load target user: %w", err)
		}
		if user.DeletedAt != nil {
			result.Outcome = OutcomeNotFound
			return nil
		}

		if user.Status == in.NewStatus {
			result = Result{Outcome: OutcomeOK, User: user}
			return nil
		}

		if user.IsActiveAdmin() && in.NewStatus != domain.StatusActive {
			count, err := tx.LockActiveAdmins(ctx)
			if err != nil {
				return fmt.Errorf("failed to lock active admins: %w", err)
			}
			if count <= 1 {
				result.Outcome = OutcomeLastAdmin
				return nil
			}
		}

		updated, err := tx.UpdateUserStatus(ctx, user.ID, in.NewStatus, now)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if err := tx.AppendAudit(ctx, domain.AuditEntry{
			ID:             uuid.New(),
			TraceID:        in.TraceID,
			ActorID:        in.ActorID,
			ActorSessionID: in.ActorSessionID,
			Action:         domain.AuditChangeStatus,
			TargetID:       user.ID,
			Field:          "status",
			OldValue:       string(user.Status),
			NewValue:       string(in.NewStatus),
			Reason:         in.Reason,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("failed to append audit record: %w", err)
		}

		if in.NewStatus == domain.StatusSuspended {
			revoked, err := tx.RevokeUserSessions(ctx, user.ID, now)
			if err != nil {
				return fmt.Errorf("failed to revoke sessions: %w", err)
			}
			s.logger.Info("revoked sessions for suspended user",
				"user_id", user.ID, "count", revoked, "trace_id", in.TraceID)
		}

		result = Result{Outcome: OutcomeOK, User: updated}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.Outcome == OutcomeOK && in.NewStatus == domain.StatusSuspended && s.sessions != nil {
		if err := s.sessions.PurgeUser(ctx, in.TargetID); err != nil {
			s.logger.Warn("failed to purge session cache",
				"user_id", in.TargetID, "error", err)
		}
	}
	return result, nil
}
