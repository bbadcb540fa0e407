package repository

import (
	"fmt"
	"strings"

	"github.com/lumenhq/adminapi/internal/listquery"
)

// sqlBuilder assembles parameterized SQL fragments with one shared positional
// argument list. Field names pass through an allowlisted column map, so no
// caller-controlled text ever reaches the SQL string.
type sqlBuilder struct {
	columns map[string]string
	args    []any
}

func newSQLBuilder(columns map[string]string) *sqlBuilder {
	return &sqlBuilder{columns: columns}
}

func (b *sqlBuilder) bind(value any) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) column(field string) string {
	col, ok := b.columns[field]
	if !ok {
		// Fields reach here only after allowlist validation; a miss means the
		// column map and the endpoint config have drifted apart.
		panic(fmt.Sprintf("repository: no column mapping for field %q", field))
	}
	return col
}

// primitives exposes the builder as the predicate capability the keyset
// algorithm composes over.
func (b *sqlBuilder) primitives() listquery.Primitives[string] {
	return listquery.Primitives[string]{
		Equals: func(field string, value any) string {
			return b.column(field) + " = " + b.bind(value)
		},
		Compare: func(field string, direction listquery.Direction, value any) string {
			op := " > "
			if direction == listquery.DirectionDesc {
				op = " < "
			}
			return b.column(field) + op + b.bind(value)
		},
		And: func(preds []string) string {
			if len(preds) == 0 {
				return "TRUE"
			}
			return "(" + strings.Join(preds, " AND ") + ")"
		},
		Or: func(preds []string) string {
			if len(preds) == 0 {
				return "FALSE"
			}
			return "(" + strings.Join(preds, " OR ") + ")"
		},
		Empty: func() string { return "TRUE" },
	}
}

// filterSQL renders one validated filter expression.
func (b *sqlBuilder) filterSQL(expr listquery.FilterExpr) string {
	col := b.column(expr.Field)
	switch expr.Op {
	case listquery.OpEq:
		return col + " = " + b.bind(expr.Value)
	case listquery.OpGte:
		return col + " >= " + b.bind(expr.Value)
	case listquery.OpLte:
		return col + " <= " + b.bind(expr.Value)
	case listquery.OpIn:
		placeholders := make([]string, len(expr.Values))
		for i, value := range expr.Values {
			placeholders[i] = b.bind(value)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")"
	default:
		panic(fmt.Sprintf("repository: unsupported filter operator %q", expr.Op))
	}
}

// orderBySQL renders the ORDER BY clause for a validated sort.
func (b *sqlBuilder) orderBySQL(sort []listquery.SortField) string {
	parts := make([]string, len(sort))
	for i, key := range sort {
		dir := "ASC"
		if key.Direction == listquery.DirectionDesc {
			dir = "DESC"
		}
		parts[i] = b.column(key.Field) + " " + dir
	}
	return strings.Join(parts, ", ")
}
