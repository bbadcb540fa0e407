package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/middleware"
)

type organizationLister interface {
	List(ctx context.Context) ([]domain.Organization, error)
}

// OrganizationHandler serves the tenant directory.
type OrganizationHandler struct {
	organizations organizationLister
	logger        *slog.Logger
}

// NewOrganizationHandler creates the organizations endpoint handler.
func NewOrganizationHandler(organizations organizationLister, logger *slog.Logger) *OrganizationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationHandler{organizations: organizations, logger: logger}
}

// List handles GET /api/organizations.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.organizations.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list organizations", "error", err,
			"trace_id", middleware.TraceIDFromRequest(r))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}
