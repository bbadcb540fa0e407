package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenhq/adminapi/internal/adminops"
	"github.com/lumenhq/adminapi/internal/auth"
	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/listquery"
	"github.com/lumenhq/adminapi/internal/middleware"
	"github.com/lumenhq/adminapi/internal/repository"
)

// UserListOptions is the list-query configuration for the users endpoint.
// Main and tests share it so the allowlists cannot drift.
func UserListOptions() listquery.Options {
	return listquery.Options{
		Sort: listquery.SortConfig{
			Fields: map[string]listquery.SortableField{
				"id":        {Type: listquery.TypeUUID},
				"email":     {Type: listquery.TypeString},
				"name":      {Type: listquery.TypeString},
				"role":      {Type: listquery.TypeEnum, EnumValues: []string{"admin", "manager", "member"}},
				"status":    {Type: listquery.TypeEnum, EnumValues: []string{"active", "suspended"}},
				"createdAt": {Type: listquery.TypeDatetime},
				"updatedAt": {Type: listquery.TypeDatetime},
			},
			Default:    []listquery.SortField{{Field: "createdAt", Direction: listquery.DirectionDesc}},
			TieBreaker: listquery.SortField{Field: "id", Direction: listquery.DirectionAsc},
			MaxFields:  3,
		},
		Filter: listquery.FilterConfig{
			Fields: map[string]listquery.FilterField{
				"role": {
					Type:       listquery.TypeEnum,
					Operators:  []listquery.Op{listquery.OpEq, listquery.OpIn},
					EnumValues: []string{"admin", "manager", "member"},
				},
				"status": {
					Type:       listquery.TypeEnum,
					Operators:  []listquery.Op{listquery.OpEq, listquery.OpIn},
					EnumValues: []string{"active", "suspended"},
				},
				"email": {
					Type:      listquery.TypeString,
					Operators: []listquery.Op{listquery.OpEq},
				},
				"createdAt": {
					Type:      listquery.TypeDatetime,
					Operators: []listquery.Op{listquery.OpGte, listquery.OpLte},
				},
			},
		},
		EnableSearch: true,
	}
}

type userLister interface {
	List(ctx context.Context, organizationID *uuid.UUID, query listquery.ListQuery) (repository.UserPage, error)
}

type adminService interface {
	ChangeRole(ctx context.Context, in adminops.ChangeRoleInput) (adminops.Result, error)
	ChangeStatus(ctx context.Context, in adminops.ChangeStatusInput) (adminops.Result, error)
}

// UserHandler serves user listings and protocol mutations.
type UserHandler struct {
	users   userLister
	admin   adminService
	builder *listquery.Builder
	logger  *slog.Logger
}

// NewUserHandler creates the users endpoint handler.
func NewUserHandler(users userLister, admin adminService, builder *listquery.Builder, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, admin: admin, builder: builder, logger: logger}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	var organizationID *uuid.UUID
	if raw := strings.TrimSpace(values.Get("organizationId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "organizationId must be a UUID")
			return
		}
		organizationID = &id
	}

	query, err := h.builder.Build(listquery.Input{
		Limit:   values.Get("limit"),
		Sort:    values.Get("sort"),
		Filters: listquery.FiltersFromQuery(values),
		Cursor:  values.Get("cursor"),
		Q:       values.Get("q"),
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}

	page, err := h.users.List(r.Context(), organizationID, query)
	if err != nil {
		h.logger.Error("failed to list users", "error", err, "trace_id", middleware.TraceIDFromRequest(r))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":      page.Users,
		"nextCursor": page.NextCursor,
		"hasMore":    page.HasMore,
	})
}

type changeRolePayload struct {
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

type changeStatusPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// ChangeRole handles PATCH /api/users/{id}/role.
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.mutationScope(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var payload changeRolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON body")
		return
	}
	if !domain.Role(payload.Role).Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", "role must be one of admin, manager, member")
		return
	}

	result, err := h.admin.ChangeRole(r.Context(), adminops.ChangeRoleInput{
		ActorID:        actor.UserID,
		ActorSessionID: actor.SessionID,
		TraceID:        middleware.TraceIDFromRequest(r),
		TargetID:       targetID,
		NewRole:        domain.Role(payload.Role),
		Reason:         strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		h.logger.Error("role change failed", "error", err, "target_id", targetID,
			"trace_id", middleware.TraceIDFromRequest(r))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	h.writeMutationResult(w, result, "last_admin_role_change",
		"cannot demote the last active admin")
}

// ChangeStatus handles PATCH /api/users/{id}/status.
func (h *UserHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, targetID, ok := h.mutationScope(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var payload changeStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON body")
		return
	}
	if !domain.Status(payload.Status).Valid() {
		writeError(w, http.StatusBadRequest, "validation_failed", "status must be one of active, suspended")
		return
	}

	result, err := h.admin.ChangeStatus(r.Context(), adminops.ChangeStatusInput{
		ActorID:        actor.UserID,
		ActorSessionID: actor.SessionID,
		TraceID:        middleware.TraceIDFromRequest(r),
		TargetID:       targetID,
		NewStatus:      domain.Status(payload.Status),
		Reason:         strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		h.logger.Error("status change failed", "error", err, "target_id", targetID,
			"trace_id", middleware.TraceIDFromRequest(r))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	h.writeMutationResult(w, result, "last_admin_suspension",
		"cannot suspend the last active admin")
}

func (h *UserHandler) mutationScope(w http.ResponseWriter, r *http.Request) (auth.Actor, uuid.UUID, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return auth.Actor{}, uuid.Nil, false
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "user id must be a UUID")
		return auth.Actor{}, uuid.Nil, false
	}
	return actor, targetID, true
}

func (h *UserHandler) writeMutationResult(w http.ResponseWriter, result adminops.Result, conflictCode, conflictMessage string) {
	switch result.Outcome {
	case adminops.OutcomeOK:
		writeJSON(w, http.StatusOK, map[string]any{"user": result.User})
	case adminops.OutcomeNotFound:
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case adminops.OutcomeLastAdmin:
		writeError(w, http.StatusConflict, conflictCode, conflictMessage)
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
