// Package listquery validates untrusted list-endpoint input (limit, sort,
// filters, cursor, search) against per-endpoint allowlists and produces a
// fully-typed query descriptor for a storage adapter. The whole package is
// pure and synchronous: no I/O, no locks, no shared mutable state.
package listquery

import (
	"strconv"
	"strings"
)

const (
	defaultLimit = 25
	maxLimit     = 250
)

// Options configures a Builder for one endpoint. Allowlists are built at
// startup and never mutated afterwards.
type Options struct {
	Sort   SortConfig
	Filter FilterConfig
	// EnableSearch accepts the free-text q parameter. When false, its presence
	// is itself a validation issue.
	EnableSearch bool
	// DefaultLimit and MaxLimit override the 25/250 defaults when positive.
	DefaultLimit int
	MaxLimit     int
}

// Builder turns raw request values into validated ListQuery descriptors.
type Builder struct {
	sort         *SortParser
	filter       *FilterParser
	enableSearch bool
	defaultLimit int
	maxLimit     int
}

// NewBuilder validates the endpoint configuration. Configuration errors are
// fatal here; they never reach request handling.
func NewBuilder(opts Options) (*Builder, error) {
	sortParser, err := NewSortParser(opts.Sort)
	if err != nil {
		return nil, err
	}
	filterParser, err := NewFilterParser(opts.Filter)
	if err != nil {
		return nil, err
	}
	builder := &Builder{
		sort:         sortParser,
		filter:       filterParser,
		enableSearch: opts.EnableSearch,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
	if builder.defaultLimit <= 0 {
		builder.defaultLimit = defaultLimit
	}
	if builder.maxLimit <= 0 {
		builder.maxLimit = maxLimit
	}
	return builder, nil
}

// Input carries the raw, untrusted, HTTP-query-shaped values for one request.
// Filters must already be normalized to the canonical shape by exactly one of
// FiltersFromMap or FiltersFromQuery.
type Input struct {
	Limit   string
	Sort    string
	Filters []RawFilter
	Cursor  string
	Q       string
}

// ListQuery is the validated query descriptor. It is built fresh per request
// and never persisted. When Cursor is non-nil, Cursor.Sort equals Normalized;
// mismatches are rejected before this value exists.
type ListQuery struct {
	Limit      int
	Sort       []SortField
	Normalized string
	Cursor     *Payload
	Filters    []FilterExpr
	Q          string
}

// Build validates one request. Limit and q issues accumulate without failing
// immediately; sort, filter and cursor validation each raise their own
// aggregated error as soon as their phase fails. Only when those three phases
// succeed does the accumulated limit/q list get raised. A request with both a
// bad sort token and a bad limit therefore reports only the sort error.
func (b *Builder) Build(in Input) (ListQuery, error) {
	var issues []Issue

	limit := b.defaultLimit
	if strings.TrimSpace(in.Limit) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(in.Limit))
		if err != nil || parsed <= 0 {
			issues = append(issues, Issue{Field: "limit", Message: "must be a positive integer"})
		} else if parsed > b.maxLimit {
			limit = b.maxLimit
		} else {
			limit = parsed
		}
	}

	q := strings.TrimSpace(in.Q)
	if q != "" && !b.enableSearch {
		issues = append(issues, Issue{Field: "q", Message: "search is not supported on this endpoint"})
	}

	sortResult, err := b.sort.Parse(in.Sort)
	if err != nil {
		return ListQuery{}, err
	}

	filters, err := b.filter.Parse(in.Filters)
	if err != nil {
		return ListQuery{}, err
	}

	var cursor *Payload
	if in.Cursor != "" {
		payload, err := DecodeCursor(in.Cursor, DecodeOptions{
			ExpectedSort: sortResult.Normalized,
			SortFields:   sortFieldNames(sortResult.Fields),
			Allowed:      b.sort.Fields(),
		})
		if err != nil {
			return ListQuery{}, err
		}
		cursor = &payload
	}

	if len(issues) > 0 {
		return ListQuery{}, newValidationError(issues)
	}

	return ListQuery{
		Limit:      limit,
		Sort:       sortResult.Fields,
		Normalized: sortResult.Normalized,
		Cursor:     cursor,
		Filters:    filters,
		Q:          q,
	}, nil
}
