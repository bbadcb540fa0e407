package repository

import (
	"reflect"
	"testing"

	"github.com/lumenhq/adminapi/internal/listquery"
)

func TestKeysetAfterSQL(t *testing.T) {
	builder := newSQLBuilder(UserColumns)
	sort := []listquery.SortField{
		{Field: "createdAt", Direction: listquery.DirectionDesc},
		{Field: "id", Direction: listquery.DirectionAsc},
	}
	after := map[string]any{
		"createdAt": "2026-03-01T10:00:00.000Z",
		"id":        "0f1e2d3c-4b5a-4697-8877-665544332211",
	}

	got := listquery.KeysetAfter(builder.primitives(), sort, after)
	want := "((created_at < $1) OR (created_at = $2 AND id > $3))"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	wantArgs := []any{
		"2026-03-01T10:00:00.000Z",
		"2026-03-01T10:00:00.000Z",
		"0f1e2d3c-4b5a-4697-8877-665544332211",
	}
	if !reflect.DeepEqual(builder.args, wantArgs) {
		t.Fatalf("expected args %v, got %v", wantArgs, builder.args)
	}
}

func TestFilterSQL(t *testing.T) {
	builder := newSQLBuilder(UserColumns)

	eq := builder.filterSQL(listquery.FilterExpr{Field: "role", Op: listquery.OpEq, Value: "admin"})
	if eq != "role = $1" {
		t.Fatalf("unexpected eq fragment: %q", eq)
	}
	gte := builder.filterSQL(listquery.FilterExpr{Field: "createdAt", Op: listquery.OpGte, Value: "2026-01-01T00:00:00.000Z"})
	if gte != "created_at >= $2" {
		t.Fatalf("unexpected gte fragment: %q", gte)
	}
	in := builder.filterSQL(listquery.FilterExpr{Field: "status", Op: listquery.OpIn, Values: []any{"active", "suspended"}})
	if in != "status IN ($3, $4)" {
		t.Fatalf("unexpected in fragment: %q", in)
	}

	wantArgs := []any{"admin", "2026-01-01T00:00:00.000Z", "active", "suspended"}
	if !reflect.DeepEqual(builder.args, wantArgs) {
		t.Fatalf("expected args %v, got %v", wantArgs, builder.args)
	}
}

func TestOrderBySQL(t *testing.T) {
	builder := newSQLBuilder(UserColumns)
	sort := []listquery.SortField{
		{Field: "createdAt", Direction: listquery.DirectionDesc},
		{Field: "id", Direction: listquery.DirectionAsc},
	}
	if got := builder.orderBySQL(sort); got != "created_at DESC, id ASC" {
		t.Fatalf("unexpected order by: %q", got)
	}
}

func TestColumnAllowlistPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unmapped field")
		}
	}()
	builder := newSQLBuilder(UserColumns)
	builder.column("organizationId")
}

func TestSharedArgNumbering(t *testing.T) {
	builder := newSQLBuilder(UserColumns)
	first := builder.bind("a")
	_ = builder.filterSQL(listquery.FilterExpr{Field: "email", Op: listquery.OpEq, Value: "b"})
	last := builder.bind("c")
	if first != "$1" || last != "$3" {
		t.Fatalf("expected placeholders $1 and $3, got %s and %s", first, last)
	}
	if len(builder.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(builder.args))
	}
}
