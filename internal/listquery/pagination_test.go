package listquery

import (
	"fmt"
	"sort"
	"testing"
)

// The canonical scalar forms order correctly as plain Go values: ISO-8601 UTC
// datetimes and uuids as strings, numbers as float64.
func compareScalars(a, b any) int {
	switch left := a.(type) {
	case string:
		right := b.(string)
		switch {
		case left < right:
			return -1
		case left > right:
			return 1
		}
		return 0
	case float64:
		right := b.(float64)
		switch {
		case left < right:
			return -1
		case left > right:
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("unsupported scalar %T", a))
	}
}

type row map[string]any

// rowPrimitives evaluates predicates directly against in-memory rows, proving
// the keyset algorithm independent of any storage backend.
func rowPrimitives() Primitives[func(row) bool] {
	return Primitives[func(row) bool]{
		Equals: func(field string, value any) func(row) bool {
			return func(r row) bool { return compareScalars(r[field], value) == 0 }
		},
		Compare: func(field string, direction Direction, value any) func(row) bool {
			return func(r row) bool {
				c := compareScalars(r[field], value)
				if direction == DirectionDesc {
					return c < 0
				}
				return c > 0
			}
		},
		And: func(preds []func(row) bool) func(row) bool {
			return func(r row) bool {
				for _, pred := range preds {
					if !pred(r) {
						return false
					}
				}
				return true
			}
		},
		Or: func(preds []func(row) bool) func(row) bool {
			return func(r row) bool {
				for _, pred := range preds {
					if pred(r) {
						return true
					}
				}
				return false
			}
		},
		Empty: func() func(row) bool {
			return func(row) bool { return true }
		},
	}
}

func sortRows(rows []row, spec []SortField) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range spec {
			c := compareScalars(rows[i][key.Field], rows[j][key.Field])
			if c == 0 {
				continue
			}
			if key.Direction == DirectionDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Paging through a fixed snapshot with successive cursors must yield every row
// exactly once, in order, regardless of page size.
func TestKeysetPagination_NoGapsNoDuplicates(t *testing.T) {
	spec := []SortField{
		{Field: "createdAt", Direction: DirectionDesc},
		{Field: "id", Direction: DirectionAsc},
	}

	// Deliberately collide createdAt values so the tie-breaker does real work.
	var snapshot []row
	for i := 0; i < 11; i++ {
		snapshot = append(snapshot, row{
			"createdAt": fmt.Sprintf("2026-02-%02dT00:00:00.000Z", 10+i/3),
			"id":        fmt.Sprintf("user_%02d", i),
		})
	}
	sortRows(snapshot, spec)

	for _, limit := range []int{1, 3, 4, 25} {
		var collected []row
		var after map[string]any
		pages := 0
		for {
			pred := rowPrimitives().Empty()
			if after != nil {
				pred = KeysetAfter(rowPrimitives(), spec, after)
			}
			var page []row
			for _, r := range snapshot {
				if pred(r) {
					page = append(page, r)
				}
			}
			hasMore := len(page) > limit
			if hasMore {
				page = page[:limit]
			}
			collected = append(collected, page...)
			pages++
			if !hasMore {
				break
			}
			last := page[len(page)-1]
			after = map[string]any{
				"createdAt": last["createdAt"],
				"id":        last["id"],
			}
			if pages > len(snapshot)+1 {
				t.Fatalf("limit %d: pagination did not terminate", limit)
			}
		}

		if len(collected) != len(snapshot) {
			t.Fatalf("limit %d: expected %d rows, got %d", limit, len(snapshot), len(collected))
		}
		for i := range snapshot {
			if collected[i]["id"] != snapshot[i]["id"] {
				t.Fatalf("limit %d: row %d out of order: got %v want %v",
					limit, i, collected[i]["id"], snapshot[i]["id"])
			}
		}
	}
}
