package listquery

import "fmt"

// Primitives are the backend-provided building blocks the keyset algorithm
// composes into a predicate. The engine never sees SQL, BSON or anything else
// concrete; it only combines whatever P the storage adapter works in.
type Primitives[P any] struct {
	// Equals matches rows whose field equals value.
	Equals func(field string, value any) P
	// Compare matches rows strictly after value on field under the given
	// direction: greater-than for ascending, less-than for descending.
	Compare func(field string, direction Direction, value any) P
	// And conjoins predicates; And(nil) matches everything.
	And func(preds []P) P
	// Or disjoins predicates; Or(nil) matches nothing.
	Or func(preds []P) P
	// Empty matches everything.
	Empty func() P
}

// KeysetAfter builds the lexicographic seek predicate selecting rows strictly
// after the given tuple of sort-key values:
//
//	OR over i of AND(equals(sort[j], after[j]) for j < i, compare(sort[i], after[i]))
//
// The predicate is exact as long as the sort defines a total order, which the
// mandatory tie-breaker guarantees. A missing after value is a contract
// violation, not user error: decoded cursors always carry every sort field, so
// this panics instead of returning a validation error.
func KeysetAfter[P any](p Primitives[P], sort []SortField, after map[string]any) P {
	if len(sort) == 0 {
		return p.Empty()
	}

	for _, key := range sort {
		if _, ok := after[key.Field]; !ok {
			panic(fmt.Sprintf("listquery: keyset after value missing for sort field %q", key.Field))
		}
	}

	branches := make([]P, 0, len(sort))
	for i, key := range sort {
		terms := make([]P, 0, i+1)
		for _, prev := range sort[:i] {
			terms = append(terms, p.Equals(prev.Field, after[prev.Field]))
		}
		terms = append(terms, p.Compare(key.Field, key.Direction, after[key.Field]))
		branches = append(branches, p.And(terms))
	}
	return p.Or(branches)
}
