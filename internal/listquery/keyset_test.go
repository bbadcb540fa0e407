package listquery

import (
	"fmt"
	"strings"
	"testing"
)

// textPrimitives renders predicates as strings so tests can assert the exact
// shape the algorithm produces.
func textPrimitives() Primitives[string] {
	return Primitives[string]{
		Equals: func(field string, value any) string {
			return fmt.Sprintf("%s=%v", field, value)
		},
		Compare: func(field string, direction Direction, value any) string {
			op := ">"
			if direction == DirectionDesc {
				op = "<"
			}
			return fmt.Sprintf("%s%s%v", field, op, value)
		},
		And: func(preds []string) string {
			return "AND[" + strings.Join(preds, ",") + "]"
		},
		Or: func(preds []string) string {
			return "OR[" + strings.Join(preds, ",") + "]"
		},
		Empty: func() string { return "TRUE" },
	}
}

func TestKeysetAfter_TwoFieldSeekPredicate(t *testing.T) {
	sort := []SortField{
		{Field: "createdAt", Direction: DirectionDesc},
		{Field: "id", Direction: DirectionAsc},
	}
	after := map[string]any{
		"createdAt": "2026-02-26T00:00:00.000Z",
		"id":        "user_2",
	}

	got := KeysetAfter(textPrimitives(), sort, after)
	want := "OR[AND[createdAt<2026-02-26T00:00:00.000Z],AND[createdAt=2026-02-26T00:00:00.000Z,id>user_2]]"
	if got != want {
		t.Fatalf("unexpected predicate:\n got %s\nwant %s", got, want)
	}
}

func TestKeysetAfter_SingleField(t *testing.T) {
	sort := []SortField{{Field: "id", Direction: DirectionAsc}}
	got := KeysetAfter(textPrimitives(), sort, map[string]any{"id": "a"})
	if got != "OR[AND[id>a]]" {
		t.Fatalf("unexpected predicate %s", got)
	}
}

func TestKeysetAfter_EmptySortMatchesEverything(t *testing.T) {
	got := KeysetAfter(textPrimitives(), nil, map[string]any{})
	if got != "TRUE" {
		t.Fatalf("unexpected predicate %s", got)
	}
}

func TestKeysetAfter_MissingValuePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for missing after value")
		}
	}()
	sort := []SortField{
		{Field: "createdAt", Direction: DirectionDesc},
		{Field: "id", Direction: DirectionAsc},
	}
	KeysetAfter(textPrimitives(), sort, map[string]any{"createdAt": "2026-02-26T00:00:00.000Z"})
}
