package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/lumenhq/adminapi/internal/middleware"
)

// RouterConfig wires the handlers and middleware into one mux.
type RouterConfig struct {
	Authenticator  *Authenticator
	Users          *UserHandler
	Audit          *AuditHandler
	Organizations  *OrganizationHandler
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the API routing table. Every /api route requires an
// authenticated session; mutations and the audit log additionally require the
// admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Authenticator.Middleware)

		r.Get("/users", cfg.Users.List)
		r.Get("/organizations", cfg.Organizations.List)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticator.RequireAdmin)
			r.Patch("/users/{id}/role", cfg.Users.ChangeRole)
			r.Patch("/users/{id}/status", cfg.Users.ChangeStatus)
			r.Get("/audit", cfg.Audit.List)
			r.Get("/audit/export", cfg.Audit.Export)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.TraceHeader},
		ExposedHeaders:   []string{middleware.TraceHeader, "Content-Disposition"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
