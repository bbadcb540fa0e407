package listquery

import "strings"

// Issue describes a single problem with one request parameter.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every issue found while validating a request.
// The cursor is untrusted input like any other parameter, so cursor failures
// use this same type.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(issues []Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}
