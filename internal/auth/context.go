package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lumenhq/adminapi/internal/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor is the authenticated principal attached to a request context.
type Actor struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      domain.Role
}

// ContextWithActor returns a new context that carries the authenticated actor.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the authenticated actor from the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	value := ctx.Value(actorKey)
	if value == nil {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	if !ok || actor.UserID == uuid.Nil {
		return Actor{}, false
	}
	return actor, true
}

// RequireAdmin ensures the context carries an admin actor.
func RequireAdmin(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, fmt.Errorf("authentication required")
	}
	if actor.Role != domain.RoleAdmin {
		return Actor{}, fmt.Errorf("admin role required")
	}
	return actor, nil
}
