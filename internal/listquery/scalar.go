package listquery

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScalarType identifies the wire type of a sortable/filterable field.
type ScalarType string

const (
	TypeString   ScalarType = "string"
	TypeUUID     ScalarType = "uuid"
	TypeDatetime ScalarType = "datetime"
	TypeNumber   ScalarType = "number"
	TypeBoolean  ScalarType = "boolean"
	TypeEnum     ScalarType = "enum"
)

// datetimeLayout is the canonical rendering for datetime values: ISO-8601 UTC
// with millisecond precision. Every accepted input normalizes to this form.
const datetimeLayout = "2006-01-02T15:04:05.000Z"

var datetimeInputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// uuidShape enforces the RFC-4122 textual form: version 1-5 and variant 10xx.
// uuid.Parse alone is laxer than the wire contract allows.
var uuidShape = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// Coerce normalizes an untyped raw value into the canonical Go representation
// for t. The canonical forms are chosen to survive a JSON round trip through
// the cursor unchanged: string/uuid/datetime/enum map to string, number to
// float64, boolean to bool. The second return is false when raw is not a valid
// value of t; callers decide how to report that, it is never silently defaulted.
func Coerce(t ScalarType, enumValues []string, raw any) (any, bool) {
	switch t {
	case TypeString:
		s, ok := raw.(string)
		return s, ok
	case TypeUUID:
		return coerceUUID(raw)
	case TypeDatetime:
		return coerceDatetime(raw)
	case TypeNumber:
		return coerceNumber(raw)
	case TypeBoolean:
		return coerceBoolean(raw)
	case TypeEnum:
		return coerceEnum(enumValues, raw)
	default:
		return nil, false
	}
}

// FormatDatetime renders a time in the canonical cursor form. Storage adapters
// use it to build after-values that compare identically to coerced input.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(datetimeLayout)
}

func coerceUUID(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok || !uuidShape.MatchString(s) {
		return nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false
	}
	return id.String(), true
}

func coerceDatetime(raw any) (any, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC().Format(datetimeLayout), true
	case string:
		value := strings.TrimSpace(v)
		if value == "" {
			return nil, false
		}
		for _, layout := range datetimeInputLayouts {
			ts, err := time.Parse(layout, value)
			if err == nil {
				return ts.UTC().Format(datetimeLayout), true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

func coerceNumber(raw any) (any, bool) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		n = parsed
	default:
		return nil, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, false
	}
	return n, true
}

func coerceBoolean(raw any) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.TrimSpace(v) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return nil, false
}

func coerceEnum(enumValues []string, raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok || len(enumValues) == 0 {
		return nil, false
	}
	for _, allowed := range enumValues {
		if s == allowed {
			return s, true
		}
	}
	return nil, false
}
