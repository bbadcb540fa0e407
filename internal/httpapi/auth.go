package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenhq/adminapi/internal/auth"
	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/sessioncache"
)

type sessionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// Authenticator resolves bearer session tokens into request actors. The cache
// fronts the sessions table; users are always loaded fresh so a role change
// takes effect on the next request.
type Authenticator struct {
	cache    sessioncache.Cache
	sessions sessionGetter
	users    userGetter
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthenticator creates the session authentication middleware.
func NewAuthenticator(cache sessioncache.Cache, sessions sessionGetter, users userGetter, ttl time.Duration, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		cache:    cache,
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Middleware authenticates every request or rejects it with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(token, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		sessionID, err := uuid.Parse(strings.TrimSpace(strings.TrimPrefix(token, "Bearer ")))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "malformed session token")
			return
		}

		session, err := a.lookupSession(r.Context(), sessionID)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "unknown session")
			return
		}
		if err != nil {
			a.logger.Error("session lookup failed", "error", err, "session_id", sessionID)
			writeError(w, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		now := a.now()
		if !session.Live(now) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "session expired or revoked")
			return
		}

		user, err := a.users.GetByID(r.Context(), session.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "unknown user")
			return
		}
		if err != nil {
			a.logger.Error("user lookup failed", "error", err, "user_id", session.UserID)
			writeError(w, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		if user.DeletedAt != nil || user.Status != domain.StatusActive {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "account is not active")
			return
		}

		ctx := auth.ContextWithActor(r.Context(), auth.Actor{
			UserID:    user.ID,
			SessionID: session.ID,
			Role:      user.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the admin role. It runs after Middleware.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireAdmin(r.Context()); err != nil {
			writeError(w, http.StatusForbidden, "forbidden", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) lookupSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	if a.cache != nil {
		session, err := a.cache.Get(ctx, id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, sessioncache.ErrMiss) {
			a.logger.Warn("session cache read failed", "error", err, "session_id", id)
		}
	}
	session, err := a.sessions.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if a.cache != nil && session.Live(a.now()) {
		ttl := a.ttl
		if remaining := time.Until(session.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
		if ttl > 0 {
			if err := a.cache.Put(ctx, session, ttl); err != nil {
				a.logger.Warn("session cache write failed", "error", err, "session_id", id)
			}
		}
	}
	return session, nil
}
