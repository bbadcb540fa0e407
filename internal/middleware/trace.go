package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const traceIDKey contextKey = "traceID"

// TraceHeader is the inbound and outbound trace identifier header.
const TraceHeader = "X-Trace-Id"

// TraceMiddleware attaches a trace ID to every request. An inbound header is
// honored so traces can span services; otherwise a fresh one is generated.
// The ID is echoed on the response and propagated through the context into
// audit records.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(TraceHeader))
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}
		w.Header().Set(TraceHeader, traceID)
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceIDFromContext retrieves the request trace ID, if any.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// TraceIDFromRequest is a convenience for log lines.
func TraceIDFromRequest(r *http.Request) string {
	return TraceIDFromContext(r.Context())
}
