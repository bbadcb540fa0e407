package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenhq/adminapi/internal/export"
	"github.com/lumenhq/adminapi/internal/listquery"
	"github.com/lumenhq/adminapi/internal/middleware"
)

// AuditListOptions is the list-query configuration for the audit endpoints.
func AuditListOptions() listquery.Options {
	return listquery.Options{
		Sort: listquery.SortConfig{
			Fields: map[string]listquery.SortableField{
				"id":        {Type: listquery.TypeUUID},
				"createdAt": {Type: listquery.TypeDatetime},
			},
			Default:    []listquery.SortField{{Field: "createdAt", Direction: listquery.DirectionDesc}},
			TieBreaker: listquery.SortField{Field: "id", Direction: listquery.DirectionAsc},
			MaxFields:  2,
		},
		Filter: listquery.FilterConfig{
			Fields: map[string]listquery.FilterField{
				"action": {
					Type:       listquery.TypeEnum,
					Operators:  []listquery.Op{listquery.OpEq, listquery.OpIn},
					EnumValues: []string{"change_role", "change_status"},
				},
				"actorId": {
					Type:      listquery.TypeUUID,
					Operators: []listquery.Op{listquery.OpEq},
				},
				"targetId": {
					Type:      listquery.TypeUUID,
					Operators: []listquery.Op{listquery.OpEq},
				},
				"field": {
					Type:       listquery.TypeEnum,
					Operators:  []listquery.Op{listquery.OpEq},
					EnumValues: []string{"role", "status"},
				},
				"createdAt": {
					Type:      listquery.TypeDatetime,
					Operators: []listquery.Op{listquery.OpGte, listquery.OpLte},
				},
			},
		},
	}
}

// AuditHandler serves the audit log and its spreadsheet export.
type AuditHandler struct {
	audit    export.AuditLister
	exporter *export.Service
	builder  *listquery.Builder
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuditHandler creates the audit endpoint handler.
func NewAuditHandler(audit export.AuditLister, exporter *export.Service, builder *listquery.Builder, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{
		audit:    audit,
		exporter: exporter,
		builder:  builder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List handles GET /api/audit.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query, err := h.builder.Build(listquery.Input{
		Limit:   values.Get("limit"),
		Sort:    values.Get("sort"),
		Filters: listquery.FiltersFromQuery(values),
		Cursor:  values.Get("cursor"),
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}

	page, err := h.audit.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list audit log", "error", err, "trace_id", middleware.TraceIDFromRequest(r))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":    page.Entries,
		"nextCursor": page.NextCursor,
		"hasMore":    page.HasMore,
	})
}

// Export handles GET /api/audit/export. The workbook streams the full match
// set; cursors and limits from the query string do not apply here.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	fileName := export.FileName(h.now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)

	rows, err := h.exporter.ExportXLSX(r.Context(), export.Request{
		Sort:    values.Get("sort"),
		Filters: listquery.FiltersFromQuery(values),
	}, w)
	if err != nil {
		// Nothing has been written yet on validation failures; the exporter
		// buffers the workbook until the final write.
		w.Header().Del("Content-Disposition")
		if export.IsValidationError(err) {
			writeQueryError(w, err)
			return
		}
		h.logger.Error("audit export failed", "error", err, "trace_id", middleware.TraceIDFromRequest(r))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	h.logger.Info("audit export completed", "rows", rows, "file", fileName,
		"trace_id", middleware.TraceIDFromRequest(r))
}
