package listquery

import (
	"errors"
	"strings"
	"testing"
)

func testSortConfig() SortConfig {
	return SortConfig{
		Fields: map[string]SortableField{
			"createdAt": {Type: TypeDatetime},
			"email":     {Type: TypeString},
			"role":      {Type: TypeEnum, EnumValues: []string{"admin", "manager", "member"}},
			"id":        {Type: TypeUUID},
		},
		Default:    []SortField{{Field: "createdAt", Direction: DirectionDesc}},
		TieBreaker: SortField{Field: "id", Direction: DirectionAsc},
	}
}

func mustSortParser(t *testing.T) *SortParser {
	t.Helper()
	parser, err := NewSortParser(testSortConfig())
	if err != nil {
		t.Fatalf("failed to build sort parser: %v", err)
	}
	return parser
}

func TestSortParse_EmptyUsesDefaultAndTieBreaker(t *testing.T) {
	parser := mustSortParser(t)

	result, err := parser.Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Normalized != "-createdAt,id" {
		t.Fatalf("expected normalized -createdAt,id, got %q", result.Normalized)
	}
	if len(result.Fields) != 2 {
		t.Fatalf("expected 2 sort fields, got %d", len(result.Fields))
	}
}

func TestSortParse_TieBreakerNotDuplicated(t *testing.T) {
	parser := mustSortParser(t)

	result, err := parser.Parse("-id,email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Normalized != "-id,email" {
		t.Fatalf("expected tie-breaker to keep caller position, got %q", result.Normalized)
	}
}

func TestSortParse_UnknownAndDuplicateCollected(t *testing.T) {
	parser := mustSortParser(t)

	_, err := parser.Parse("nope,email,email")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 2 {
		t.Fatalf("expected both issues reported together, got %v", validationErr.Issues)
	}
	if validationErr.Issues[0].Field != "nope" || validationErr.Issues[1].Field != "email" {
		t.Fatalf("unexpected issue ordering: %v", validationErr.Issues)
	}
}

func TestSortParse_MaxFields(t *testing.T) {
	parser := mustSortParser(t)

	_, err := parser.Parse("createdAt,email,role,id")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 1 || validationErr.Issues[0].Field != "sort" {
		t.Fatalf("expected single sort issue, got %v", validationErr.Issues)
	}
	if !strings.Contains(validationErr.Issues[0].Message, "3") {
		t.Fatalf("expected default max of 3 in message, got %q", validationErr.Issues[0].Message)
	}
}

func TestSortParse_BareDashReportsToken(t *testing.T) {
	parser := mustSortParser(t)

	_, err := parser.Parse("-")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Issues[0].Field != "-" {
		t.Fatalf("expected the original token in the issue, got %q", validationErr.Issues[0].Field)
	}
}

func TestSortParse_WhitespaceAndEmptyTokens(t *testing.T) {
	parser := mustSortParser(t)

	result, err := parser.Parse(" , -createdAt ,, email ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Normalized != "-createdAt,email,id" {
		t.Fatalf("unexpected normalized signature %q", result.Normalized)
	}
}

func TestNewSortParser_TieBreakerOutsideAllowlist(t *testing.T) {
	cfg := testSortConfig()
	cfg.TieBreaker = SortField{Field: "missing", Direction: DirectionAsc}
	if _, err := NewSortParser(cfg); err == nil {
		t.Fatalf("expected configuration error for tie-breaker outside allowlist")
	}
}

func TestNewSortParser_EmptyDefault(t *testing.T) {
	cfg := testSortConfig()
	cfg.Default = nil
	if _, err := NewSortParser(cfg); err == nil {
		t.Fatalf("expected configuration error for empty default sort")
	}
}
