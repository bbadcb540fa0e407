package listquery

import (
	"fmt"
	"strings"
)

// Direction represents ordering direction for sortable fields.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// SortField is one key of a sort specification.
type SortField struct {
	Field     string
	Direction Direction
}

// SortableField describes the scalar type of a field that may appear in a sort
// specification, and therefore in a cursor.
type SortableField struct {
	Type       ScalarType
	EnumValues []string
}

// SortConfig is the per-endpoint sorting allowlist. It is built once at startup
// and never mutated afterwards.
type SortConfig struct {
	// Fields maps allowlisted field names to their scalar descriptors.
	Fields map[string]SortableField
	// Default is the sort applied when the request specifies none.
	Default []SortField
	// TieBreaker is appended to every sort unless already present. It must be a
	// uniquely-valued column so the resulting order is total.
	TieBreaker SortField
	// MaxFields bounds the number of caller-supplied sort keys, excluding the
	// forced tie-breaker. Zero means the default of 3.
	MaxFields int
}

const defaultMaxSortFields = 3

// SortParser validates raw sort tokens against an endpoint allowlist.
type SortParser struct {
	fields     map[string]SortableField
	defaults   []SortField
	tieBreaker SortField
	maxFields  int
}

// NewSortParser validates the configuration and returns a parser. A tie-breaker
// or default field outside the allowlist is a configuration bug, so it fails
// construction rather than surfacing per request.
func NewSortParser(cfg SortConfig) (*SortParser, error) {
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("sort config has no allowlisted fields")
	}
	if len(cfg.Default) == 0 {
		return nil, fmt.Errorf("sort config has no default sort")
	}
	if _, ok := cfg.Fields[cfg.TieBreaker.Field]; !ok {
		return nil, fmt.Errorf("tie-breaker field %q is not in the sort allowlist", cfg.TieBreaker.Field)
	}
	for _, key := range cfg.Default {
		if _, ok := cfg.Fields[key.Field]; !ok {
			return nil, fmt.Errorf("default sort field %q is not in the sort allowlist", key.Field)
		}
	}
	maxFields := cfg.MaxFields
	if maxFields <= 0 {
		maxFields = defaultMaxSortFields
	}
	return &SortParser{
		fields:     cfg.Fields,
		defaults:   cfg.Default,
		tieBreaker: cfg.TieBreaker,
		maxFields:  maxFields,
	}, nil
}

// SortResult is the validated, normalized outcome of parsing a sort string.
type SortResult struct {
	Fields     []SortField
	Normalized string
}

// Parse turns a comma-separated token string into an ordered sort with a
// guaranteed tie-breaker. Tokens are "[-]field", leading '-' meaning
// descending. Every invalid token is reported; this parser never fails on the
// first issue alone.
func (p *SortParser) Parse(raw string) (SortResult, error) {
	var issues []Issue
	seen := make(map[string]bool)
	var fields []SortField

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		direction := DirectionAsc
		name := token
		if strings.HasPrefix(token, "-") {
			direction = DirectionDesc
			name = token[1:]
		}
		if name == "" {
			issues = append(issues, Issue{Field: token, Message: "is not a sortable field"})
			continue
		}
		if _, ok := p.fields[name]; !ok {
			issues = append(issues, Issue{Field: name, Message: "is not a sortable field"})
			continue
		}
		if seen[name] {
			issues = append(issues, Issue{Field: name, Message: "appears more than once in sort"})
			continue
		}
		seen[name] = true
		fields = append(fields, SortField{Field: name, Direction: direction})
	}

	if len(fields) > p.maxFields {
		issues = append(issues, Issue{
			Field:   "sort",
			Message: fmt.Sprintf("at most %d sort fields are allowed", p.maxFields),
		})
	}
	if len(issues) > 0 {
		return SortResult{}, newValidationError(issues)
	}

	if len(fields) == 0 {
		fields = append(fields, p.defaults...)
		seen = make(map[string]bool, len(fields))
		for _, key := range fields {
			seen[key.Field] = true
		}
	}
	if !seen[p.tieBreaker.Field] {
		fields = append(fields, p.tieBreaker)
	}

	return SortResult{Fields: fields, Normalized: NormalizeSort(fields)}, nil
}

// Fields exposes the allowlist so cursor decoding can re-validate field types.
func (p *SortParser) Fields() map[string]SortableField {
	return p.fields
}

// NormalizeSort renders a sort as its deterministic signature: descending
// fields prefixed with '-', comma-joined in order.
func NormalizeSort(fields []SortField) string {
	parts := make([]string, len(fields))
	for i, key := range fields {
		if key.Direction == DirectionDesc {
			parts[i] = "-" + key.Field
		} else {
			parts[i] = key.Field
		}
	}
	return strings.Join(parts, ",")
}
