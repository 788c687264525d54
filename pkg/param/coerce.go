package param

import (
	"regexp"
	"strconv"
)

// NullValue is the type of the Null sentinel.
type NullValue struct{}

// String returns the literal form of the sentinel.
func (NullValue) String() string { return "null" }

// UndefinedValue is the type of the Undefined sentinel.
type UndefinedValue struct{}

// String returns the literal form of the sentinel.
func (UndefinedValue) String() string { return "undefined" }

// Null and Undefined are the typed values produced for the literal strings
// "null" and "undefined". They are distinct types so a coerced map can tell
// them apart from ordinary strings and from each other.
var (
	Null      = NullValue{}
	Undefined = UndefinedValue{}
)

// numberRe matches plain decimal numbers: optional sign, integer and/or
// fractional digits, optional exponent. Hex, infinities and NaN are
// deliberately excluded so they coerce as plain strings.
var numberRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Coerce maps a raw string to its typed scalar. The result is one of
// bool, NullValue, UndefinedValue, float64, or string.
//
// Precedence is literal-first: "true", "false", "null" and "undefined" are
// matched before any numeric parse, then strings that read as decimal
// numbers become float64, and everything else (including "") passes through
// unchanged. Coerce is total: every input maps to exactly one output.
func Coerce(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return Null
	case "undefined":
		return Undefined
	}
	if numberRe.MatchString(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return s
}

// CoerceValues applies Coerce element-wise to every value list. The result
// has exactly the same key set and list lengths as the input.
func CoerceValues(values Values) map[string][]any {
	typed := make(map[string][]any, len(values))
	for key, vs := range values {
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = Coerce(v)
		}
		typed[key] = list
	}
	return typed
}
