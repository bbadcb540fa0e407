// Package httpapi exposes the admin backend over REST. Handlers stay thin:
// list endpoints delegate validation to per-endpoint listquery builders and
// mutations delegate to the adminops protocol service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumenhq/adminapi/internal/listquery"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Issues  []listquery.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeQueryError maps a list-query failure to a response. Validation errors
// carry their issue list; anything else is a server fault.
func writeQueryError(w http.ResponseWriter, err error) {
	var verr *listquery.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {
			Code:    "validation_failed",
			Message: verr.Error(),
			Issues:  verr.Issues,
		}})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}
