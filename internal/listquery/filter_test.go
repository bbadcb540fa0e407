package listquery

import (
	"errors"
	"net/url"
	"testing"
)

func testFilterConfig() FilterConfig {
	return FilterConfig{
		Fields: map[string]FilterField{
			"role":      {Type: TypeEnum, Operators: []Op{OpEq, OpIn}, EnumValues: []string{"admin", "manager", "member"}},
			"status":    {Type: TypeEnum, Operators: []Op{OpEq}, EnumValues: []string{"active", "suspended"}},
			"createdAt": {Type: TypeDatetime, Operators: []Op{OpGte, OpLte}},
			"email":     {Type: TypeString, Operators: []Op{OpEq}},
		},
	}
}

func mustFilterParser(t *testing.T) *FilterParser {
	t.Helper()
	parser, err := NewFilterParser(testFilterConfig())
	if err != nil {
		t.Fatalf("failed to build filter parser: %v", err)
	}
	return parser
}

func TestFiltersFromMap_BareValueMeansEq(t *testing.T) {
	raw := FiltersFromMap(map[string]any{"role": "admin"})
	if len(raw) != 1 || raw[0].Op != OpEq || raw[0].Field != "role" {
		t.Fatalf("unexpected raw filters: %#v", raw)
	}
}

func TestFiltersFromMap_NestedOperators(t *testing.T) {
	raw := FiltersFromMap(map[string]any{
		"createdAt": map[string]any{"gte": "2026-01-01", "lte": "2026-02-01"},
		"role":      "admin",
	})
	if len(raw) != 3 {
		t.Fatalf("expected 3 raw filters, got %d", len(raw))
	}
	// Sorted field order, then sorted operator order within a field.
	if raw[0].Field != "createdAt" || raw[0].Op != OpGte {
		t.Fatalf("unexpected first term: %#v", raw[0])
	}
	if raw[1].Field != "createdAt" || raw[1].Op != OpLte {
		t.Fatalf("unexpected second term: %#v", raw[1])
	}
	if raw[2].Field != "role" {
		t.Fatalf("unexpected third term: %#v", raw[2])
	}
}

func TestFiltersFromQuery_BracketedKeys(t *testing.T) {
	values := url.Values{}
	values.Set("filter[role]", "admin")
	values.Set("filter[createdAt][gte]", "2026-01-01")
	values.Set("limit", "10")

	if !HasBracketedFilters(values) {
		t.Fatalf("expected bracketed filters to be detected")
	}
	raw := FiltersFromQuery(values)
	if len(raw) != 2 {
		t.Fatalf("expected 2 raw filters, got %d", len(raw))
	}
	if raw[0].Field != "createdAt" || raw[0].Op != OpGte {
		t.Fatalf("unexpected first term: %#v", raw[0])
	}
	if raw[1].Field != "role" || raw[1].Op != OpEq {
		t.Fatalf("unexpected second term: %#v", raw[1])
	}
}

func TestFilterParse_CoercesValues(t *testing.T) {
	parser := mustFilterParser(t)

	exprs, err := parser.Parse([]RawFilter{
		{Field: "createdAt", Op: OpGte, Value: "2026-01-01T00:00:00+07:00"},
		{Field: "role", Op: OpEq, Value: "admin"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exprs[0].Value != "2025-12-31T17:00:00.000Z" {
		t.Fatalf("expected timezone-normalized datetime, got %v", exprs[0].Value)
	}
	if exprs[1].Value != "admin" {
		t.Fatalf("unexpected enum value %v", exprs[1].Value)
	}
}

func TestFilterParse_InListDropsEmptySegments(t *testing.T) {
	parser := mustFilterParser(t)

	exprs, err := parser.Parse([]RawFilter{{Field: "role", Op: OpIn, Value: "admin,,manager,"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exprs) != 1 || len(exprs[0].Values) != 2 {
		t.Fatalf("unexpected expressions: %#v", exprs)
	}
	if exprs[0].Values[0] != "admin" || exprs[0].Values[1] != "manager" {
		t.Fatalf("unexpected in values: %v", exprs[0].Values)
	}
}

func TestFilterParse_InListRejectsInvalidElement(t *testing.T) {
	parser := mustFilterParser(t)

	_, err := parser.Parse([]RawFilter{{Field: "role", Op: OpIn, Value: "admin,root"}})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFilterParse_IssuesAggregated(t *testing.T) {
	parser := mustFilterParser(t)

	_, err := parser.Parse([]RawFilter{
		{Field: "unknown", Op: OpEq, Value: "x"},
		{Field: "status", Op: OpIn, Value: "active"},
		{Field: "createdAt", Op: OpGte, Value: "not-a-date"},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 3 {
		t.Fatalf("expected all 3 issues reported together, got %v", validationErr.Issues)
	}
}

func TestNewFilterParser_EnumWithoutValues(t *testing.T) {
	cfg := FilterConfig{Fields: map[string]FilterField{
		"role": {Type: TypeEnum, Operators: []Op{OpEq}},
	}}
	if _, err := NewFilterParser(cfg); err == nil {
		t.Fatalf("expected configuration error for enum without values")
	}
}
