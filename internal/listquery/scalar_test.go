package listquery

import "testing"

func TestCoerceDatetime_NormalizesOffsetToUTC(t *testing.T) {
	value, ok := Coerce(TypeDatetime, nil, "2026-01-01T00:00:00+07:00")
	if !ok {
		t.Fatalf("expected valid datetime")
	}
	if value != "2025-12-31T17:00:00.000Z" {
		t.Fatalf("expected UTC-normalized value, got %v", value)
	}
}

func TestCoerceDatetime_MillisecondPrecision(t *testing.T) {
	value, ok := Coerce(TypeDatetime, nil, "2026-02-26T00:00:00.123456789Z")
	if !ok {
		t.Fatalf("expected valid datetime")
	}
	if value != "2026-02-26T00:00:00.123Z" {
		t.Fatalf("expected millisecond precision, got %v", value)
	}
}

func TestCoerceDatetime_DateOnly(t *testing.T) {
	value, ok := Coerce(TypeDatetime, nil, "2026-02-26")
	if !ok {
		t.Fatalf("expected valid datetime")
	}
	if value != "2026-02-26T00:00:00.000Z" {
		t.Fatalf("unexpected value %v", value)
	}
}

func TestCoerceDatetime_Invalid(t *testing.T) {
	for _, raw := range []any{"not-a-date", "", 42, nil} {
		if _, ok := Coerce(TypeDatetime, nil, raw); ok {
			t.Fatalf("expected %v to be rejected", raw)
		}
	}
}

func TestCoerceUUID(t *testing.T) {
	value, ok := Coerce(TypeUUID, nil, "D8F1A2B3-C4D5-4E6F-8A9B-0C1D2E3F4A5B")
	if !ok {
		t.Fatalf("expected valid uuid")
	}
	if value != "d8f1a2b3-c4d5-4e6f-8a9b-0c1d2e3f4a5b" {
		t.Fatalf("expected canonical lowercase form, got %v", value)
	}

	invalid := []any{
		"d8f1a2b3-c4d5-0e6f-8a9b-0c1d2e3f4a5b", // version 0
		"d8f1a2b3-c4d5-4e6f-0a9b-0c1d2e3f4a5b", // bad variant
		"d8f1a2b3c4d54e6f8a9b0c1d2e3f4a5b",     // no dashes
		"not-a-uuid",
		123,
	}
	for _, raw := range invalid {
		if _, ok := Coerce(TypeUUID, nil, raw); ok {
			t.Fatalf("expected %v to be rejected", raw)
		}
	}
}

func TestCoerceNumber(t *testing.T) {
	if value, ok := Coerce(TypeNumber, nil, "42.5"); !ok || value != 42.5 {
		t.Fatalf("expected 42.5, got %v ok=%v", value, ok)
	}
	if value, ok := Coerce(TypeNumber, nil, 7); !ok || value != 7.0 {
		t.Fatalf("expected 7, got %v ok=%v", value, ok)
	}
	for _, raw := range []any{"abc", "", true, nil} {
		if _, ok := Coerce(TypeNumber, nil, raw); ok {
			t.Fatalf("expected %v to be rejected", raw)
		}
	}
}

func TestCoerceBoolean(t *testing.T) {
	if value, ok := Coerce(TypeBoolean, nil, "true"); !ok || value != true {
		t.Fatalf("expected true, got %v ok=%v", value, ok)
	}
	if value, ok := Coerce(TypeBoolean, nil, false); !ok || value != false {
		t.Fatalf("expected false, got %v ok=%v", value, ok)
	}
	if _, ok := Coerce(TypeBoolean, nil, "yes"); ok {
		t.Fatalf("expected non-literal boolean to be rejected")
	}
}

func TestCoerceEnum(t *testing.T) {
	values := []string{"admin", "manager", "member"}
	if value, ok := Coerce(TypeEnum, values, "admin"); !ok || value != "admin" {
		t.Fatalf("expected admin, got %v ok=%v", value, ok)
	}
	if _, ok := Coerce(TypeEnum, values, "Admin"); ok {
		t.Fatalf("expected membership check to be exact")
	}
	if _, ok := Coerce(TypeEnum, nil, "admin"); ok {
		t.Fatalf("expected empty enum set to reject everything")
	}
}

func TestCoerceString(t *testing.T) {
	if value, ok := Coerce(TypeString, nil, "hello"); !ok || value != "hello" {
		t.Fatalf("expected hello, got %v ok=%v", value, ok)
	}
	if _, ok := Coerce(TypeString, nil, 42); ok {
		t.Fatalf("expected non-string to be rejected")
	}
}
