package listquery

import (
	"errors"
	"testing"
)

func testBuilder(t *testing.T, enableSearch bool) *Builder {
	t.Helper()
	builder, err := NewBuilder(Options{
		Sort:         testSortConfig(),
		Filter:       testFilterConfig(),
		EnableSearch: enableSearch,
	})
	if err != nil {
		t.Fatalf("failed to build list query builder: %v", err)
	}
	return builder
}

func TestBuild_Defaults(t *testing.T) {
	builder := testBuilder(t, false)

	query, err := builder.Build(Input{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.Limit != 25 {
		t.Fatalf("expected default limit 25, got %d", query.Limit)
	}
	if query.Normalized != "-createdAt,id" {
		t.Fatalf("unexpected normalized sort %q", query.Normalized)
	}
	if query.Cursor != nil || len(query.Filters) != 0 || query.Q != "" {
		t.Fatalf("unexpected query contents: %+v", query)
	}
}

func TestBuild_LimitClampedToMax(t *testing.T) {
	builder := testBuilder(t, false)

	query, err := builder.Build(Input{Limit: "9999"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.Limit != 250 {
		t.Fatalf("expected limit clamped to 250, got %d", query.Limit)
	}
}

func TestBuild_InvalidLimitAndSearchAggregated(t *testing.T) {
	builder := testBuilder(t, false)

	_, err := builder.Build(Input{Limit: "-3", Q: "smith"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 2 {
		t.Fatalf("expected limit and q issues together, got %v", validationErr.Issues)
	}
	if validationErr.Issues[0].Field != "limit" || validationErr.Issues[1].Field != "q" {
		t.Fatalf("unexpected issues: %v", validationErr.Issues)
	}
}

// Pins the observed phase ordering: a sort error is raised alone even when the
// limit is also invalid. Do not "fix" this without changing the API contract.
func TestBuild_SortErrorMasksLimitError(t *testing.T) {
	builder := testBuilder(t, false)

	_, err := builder.Build(Input{Limit: "zero", Sort: "bogus"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 1 || validationErr.Issues[0].Field != "bogus" {
		t.Fatalf("expected only the sort issue, got %v", validationErr.Issues)
	}
}

func TestBuild_FilterErrorBeforeLimitError(t *testing.T) {
	builder := testBuilder(t, false)

	_, err := builder.Build(Input{
		Limit:   "zero",
		Filters: []RawFilter{{Field: "unknown", Op: OpEq, Value: "x"}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 1 || validationErr.Issues[0].Field != "unknown" {
		t.Fatalf("expected only the filter issue, got %v", validationErr.Issues)
	}
}

func TestBuild_SearchEnabled(t *testing.T) {
	builder := testBuilder(t, true)

	query, err := builder.Build(Input{Q: "  smith "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.Q != "smith" {
		t.Fatalf("expected trimmed q, got %q", query.Q)
	}
}

func TestBuild_CursorMatchingSortAccepted(t *testing.T) {
	builder := testBuilder(t, false)

	cursor := EncodeCursor(Payload{
		Sort: "-createdAt,id",
		After: map[string]any{
			"createdAt": "2026-02-26T00:00:00.000Z",
			"id":        "d8f1a2b3-c4d5-4e6f-8a9b-0c1d2e3f4a5b",
		},
	})
	query, err := builder.Build(Input{Cursor: cursor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.Cursor == nil || query.Cursor.Sort != query.Normalized {
		t.Fatalf("expected cursor bound to normalized sort, got %+v", query.Cursor)
	}
}

func TestBuild_CursorForDifferentSortRejected(t *testing.T) {
	builder := testBuilder(t, false)

	cursor := EncodeCursor(Payload{
		Sort: "email,id",
		After: map[string]any{
			"email": "a@example.com",
			"id":    "d8f1a2b3-c4d5-4e6f-8a9b-0c1d2e3f4a5b",
		},
	})
	_, err := builder.Build(Input{Cursor: cursor})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuild_FullRequest(t *testing.T) {
	builder := testBuilder(t, true)

	query, err := builder.Build(Input{
		Limit: "10",
		Sort:  "-createdAt",
		Filters: []RawFilter{
			{Field: "role", Op: OpIn, Value: "admin,manager"},
			{Field: "createdAt", Op: OpGte, Value: "2026-01-01"},
		},
		Q: "smith",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.Limit != 10 || query.Normalized != "-createdAt,id" || len(query.Filters) != 2 {
		t.Fatalf("unexpected query: %+v", query)
	}
}
