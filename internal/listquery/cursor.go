package listquery

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// cursorVersion is the only cursor format this codec understands.
const cursorVersion = 1

// Payload is the decoded content of an opaque pagination cursor. After decode,
// After holds exactly one coerced value per current sort field. Payloads are
// produced only by this codec, never assembled by hand.
type Payload struct {
	V     int            `json:"v"`
	Sort  string         `json:"sort"`
	After map[string]any `json:"after"`
}

// DecodeOptions re-validates an incoming cursor against the request that
// carries it.
type DecodeOptions struct {
	// ExpectedSort is the normalized signature of the current request's sort. A
	// cursor minted for a different sort is stale and rejected.
	ExpectedSort string
	// SortFields are the current sort fields; the cursor must carry a value for
	// exactly these, no more and no fewer.
	SortFields []string
	// Allowed maps field names to scalar descriptors for coercion.
	Allowed map[string]SortableField
}

// EncodeCursor serializes a payload to its opaque wire form:
// base64url (no padding) over compact JSON.
func EncodeCursor(p Payload) string {
	p.V = cursorVersion
	data, err := json.Marshal(p)
	if err != nil {
		// Payloads only carry JSON-safe scalars produced by Coerce.
		panic(fmt.Sprintf("listquery: cursor payload not serializable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses and re-validates an untrusted cursor string. Every
// failure mode, from malformed base64 to a missing sort-field value, surfaces
// as the same aggregated ValidationError used for any other bad input.
func DecodeCursor(raw string, opts DecodeOptions) (Payload, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Payload{}, cursorError("is not a valid cursor")
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, cursorError("is not a valid cursor")
	}
	if payload.V != cursorVersion {
		return Payload{}, cursorError(fmt.Sprintf("has unsupported version %d", payload.V))
	}
	if payload.Sort == "" {
		return Payload{}, cursorError("is missing its sort signature")
	}
	if payload.After == nil {
		return Payload{}, cursorError("is missing its after values")
	}
	if payload.Sort != opts.ExpectedSort {
		return Payload{}, cursorError("does not match the requested sort")
	}

	current := make(map[string]bool, len(opts.SortFields))
	for _, field := range opts.SortFields {
		current[field] = true
	}

	var issues []Issue
	after := make(map[string]any, len(opts.SortFields))
	for _, field := range sortedKeys(payload.After) {
		if !current[field] {
			issues = append(issues, Issue{Field: "cursor", Message: fmt.Sprintf("carries field %q that is not part of the sort", field)})
			continue
		}
		descriptor, ok := opts.Allowed[field]
		if !ok {
			issues = append(issues, Issue{Field: "cursor", Message: fmt.Sprintf("carries unknown field %q", field)})
			continue
		}
		value, ok := Coerce(descriptor.Type, descriptor.EnumValues, payload.After[field])
		if !ok {
			issues = append(issues, Issue{Field: "cursor", Message: fmt.Sprintf("carries an invalid value for field %q", field)})
			continue
		}
		after[field] = value
	}
	for _, field := range opts.SortFields {
		if _, ok := after[field]; !ok {
			issues = append(issues, Issue{Field: "cursor", Message: fmt.Sprintf("is missing a value for sort field %q", field)})
		}
	}
	if len(issues) > 0 {
		return Payload{}, newValidationError(issues)
	}

	return Payload{V: cursorVersion, Sort: payload.Sort, After: after}, nil
}

func cursorError(message string) *ValidationError {
	return newValidationError([]Issue{{Field: "cursor", Message: message}})
}

// sortFieldNames extracts the field names of a sort, in order.
func sortFieldNames(fields []SortField) []string {
	names := make([]string, len(fields))
	for i, key := range fields {
		names[i] = key.Field
	}
	return names
}
