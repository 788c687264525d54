package param

import (
	"reflect"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"null", Null},
		{"undefined", Undefined},
		{"42", float64(42)},
		{"4.5", 4.5},
		{"-17", float64(-17)},
		{"45000.50", 45000.5},
		{"1e3", float64(1000)},
		{"abc", "abc"},
		{"", ""},
		{"True", "True"},   // literals are case-sensitive
		{"NaN", "NaN"},     // not a plain decimal
		{"Inf", "Inf"},     // not a plain decimal
		{"0x10", "0x10"},   // hex stays a string
		{"12abc", "12abc"}, // trailing garbage stays a string
		{" 42", " 42"},     // no trimming
	}

	for _, tt := range tests {
		got := Coerce(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Coerce(%q) = %#v (%T), want %#v (%T)",
				tt.in, got, got, tt.want, tt.want)
		}
	}
}

func TestCoerceLiteralsBeforeNumbers(t *testing.T) {
	// "true" must never reach the numeric parse; the literal check wins.
	if got := Coerce("true"); got != true {
		t.Fatalf("Coerce(true) = %#v, want bool true", got)
	}
}

func TestCoerceValuesKeepsShape(t *testing.T) {
	values := Values{
		"users":   {"1500"},
		"flags":   {"true", "false", "maybe"},
		"revenue": {"45000.50"},
	}
	typed := CoerceValues(values)

	if len(typed) != len(values) {
		t.Fatalf("key count = %d, want %d", len(typed), len(values))
	}
	for key, vs := range values {
		if len(typed[key]) != len(vs) {
			t.Errorf("%s: list length = %d, want %d", key, len(typed[key]), len(vs))
		}
	}

	want := []any{true, false, "maybe"}
	if !reflect.DeepEqual(typed["flags"], want) {
		t.Errorf("flags = %#v, want %#v", typed["flags"], want)
	}
	if typed["users"][0] != float64(1500) {
		t.Errorf("users[0] = %#v, want 1500", typed["users"][0])
	}
	if typed["revenue"][0] != 45000.5 {
		t.Errorf("revenue[0] = %#v, want 45000.5", typed["revenue"][0])
	}
}
