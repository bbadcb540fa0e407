package listquery

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Op is a filter operator.
type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

var knownOps = map[Op]bool{OpEq: true, OpIn: true, OpGte: true, OpLte: true}

// FilterField describes one filterable field: its scalar type and the
// operators the endpoint permits on it.
type FilterField struct {
	Type       ScalarType
	Operators  []Op
	EnumValues []string
}

// FilterConfig is the per-endpoint filtering allowlist, built once at startup.
type FilterConfig struct {
	Fields map[string]FilterField
}

// RawFilter is the canonical pre-parse shape of one filter term. Both accepted
// wire shapes (nested map and legacy bracketed keys) normalize into an ordered
// list of these at ingress, so the parser only ever sees one representation.
type RawFilter struct {
	Field string
	Op    Op
	Value any
}

// FilterExpr is a validated, typed filter expression. Value carries the coerced
// scalar for eq/gte/lte; Values carries the coerced list for in.
type FilterExpr struct {
	Field  string
	Op     Op
	Value  any
	Values []any
}

// FiltersFromMap normalizes the nested-map filter shape: {field: value} or
// {field: {op: value}}. Terms are emitted in sorted field (and operator) order
// so the resulting expression list is deterministic.
func FiltersFromMap(m map[string]any) []RawFilter {
	var raw []RawFilter
	for _, field := range sortedKeys(m) {
		value := m[field]
		if opMap, ok := value.(map[string]any); ok {
			for _, op := range sortedKeys(opMap) {
				raw = append(raw, RawFilter{Field: field, Op: Op(op), Value: opMap[op]})
			}
			continue
		}
		raw = append(raw, RawFilter{Field: field, Op: OpEq, Value: value})
	}
	return raw
}

// bracketedKey matches the legacy filter[field] and filter[field][op] keys.
var bracketedKey = regexp.MustCompile(`^filter\[([^\[\]]+)\](?:\[([^\[\]]+)\])?$`)

// FiltersFromQuery normalizes the legacy bracketed query-string shape. Any key
// that does not look like a filter key is ignored here; it belongs to other
// request parameters.
func FiltersFromQuery(values url.Values) []RawFilter {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var raw []RawFilter
	for _, key := range keys {
		match := bracketedKey.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		op := OpEq
		if match[2] != "" {
			op = Op(match[2])
		}
		raw = append(raw, RawFilter{Field: match[1], Op: op, Value: values.Get(key)})
	}
	return raw
}

// HasBracketedFilters reports whether the query string carries any legacy
// filter[...] key. Callers use it to pick exactly one ingress shape.
func HasBracketedFilters(values url.Values) bool {
	for key := range values {
		if bracketedKey.MatchString(key) {
			return true
		}
	}
	return false
}

// FilterParser validates canonical filter terms against an endpoint allowlist.
type FilterParser struct {
	fields map[string]FilterField
}

// NewFilterParser validates the configuration and returns a parser.
func NewFilterParser(cfg FilterConfig) (*FilterParser, error) {
	for name, field := range cfg.Fields {
		for _, op := range field.Operators {
			if !knownOps[op] {
				return nil, fmt.Errorf("filter field %q allows unknown operator %q", name, op)
			}
		}
		if field.Type == TypeEnum && len(field.EnumValues) == 0 {
			return nil, fmt.Errorf("filter field %q is an enum with no configured values", name)
		}
	}
	return &FilterParser{fields: cfg.Fields}, nil
}

// Parse validates every term and coerces its value(s) to the field's scalar
// type. Issues across all terms are accumulated and raised together.
func (p *FilterParser) Parse(raw []RawFilter) ([]FilterExpr, error) {
	var issues []Issue
	var exprs []FilterExpr

	for _, term := range raw {
		field, ok := p.fields[term.Field]
		if !ok {
			issues = append(issues, Issue{Field: term.Field, Message: "is not a filterable field"})
			continue
		}
		if !operatorAllowed(field.Operators, term.Op) {
			issues = append(issues, Issue{
				Field:   term.Field,
				Message: fmt.Sprintf("operator %q is not allowed", term.Op),
			})
			continue
		}
		if term.Op == OpIn {
			values, ok := coerceInValues(field, term.Value)
			if !ok {
				issues = append(issues, Issue{
					Field:   term.Field,
					Message: fmt.Sprintf("has an invalid %s list value", field.Type),
				})
				continue
			}
			exprs = append(exprs, FilterExpr{Field: term.Field, Op: OpIn, Values: values})
			continue
		}
		value, ok := Coerce(field.Type, field.EnumValues, term.Value)
		if !ok {
			issues = append(issues, Issue{
				Field:   term.Field,
				Message: fmt.Sprintf("is not a valid %s", field.Type),
			})
			continue
		}
		exprs = append(exprs, FilterExpr{Field: term.Field, Op: term.Op, Value: value})
	}

	if len(issues) > 0 {
		return nil, newValidationError(issues)
	}
	return exprs, nil
}

// Fields exposes the allowlist for callers that need field descriptors.
func (p *FilterParser) Fields() map[string]FilterField {
	return p.fields
}

func operatorAllowed(allowed []Op, op Op) bool {
	for _, candidate := range allowed {
		if candidate == op {
			return true
		}
	}
	return false
}

// coerceInValues accepts either a comma-separated string (empty segments
// dropped) or an already-split list, coercing every element. A list with any
// invalid element, or no elements at all, is rejected whole.
func coerceInValues(field FilterField, raw any) ([]any, bool) {
	var elements []any
	switch v := raw.(type) {
	case string:
		for _, segment := range strings.Split(v, ",") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			elements = append(elements, segment)
		}
	case []any:
		elements = v
	case []string:
		for _, s := range v {
			elements = append(elements, s)
		}
	default:
		return nil, false
	}
	if len(elements) == 0 {
		return nil, false
	}

	values := make([]any, 0, len(elements))
	for _, element := range elements {
		value, ok := Coerce(field.Type, field.EnumValues, element)
		if !ok {
			return nil, false
		}
		values = append(values, value)
	}
	return values, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
