// Package param parses query-string-like text into ordered multi-value
// maps and coerces the raw string values into typed scalars.
//
// The hash fragment of a route address may carry its own query suffix
// ("#!/products?category=books&category=electronics") independent of the
// document-level query string; both are parsed with the same codec. Repeated
// keys are never collapsed: every occurrence is appended in encounter order.
package param

import (
	"net/url"
	"strings"
)

// Pair is one decoded key/value pair from a query string.
type Pair struct {
	Key   string
	Value string
}

// Values is a multi-valued parameter map. Each key maps to every value
// observed for it, in encounter order. A key present in the map always has
// at least one value.
type Values map[string][]string

// Get returns the first value for key, or "" if the key is absent.
func (v Values) Get(key string) string {
	if vs := v[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether key has at least one value.
func (v Values) Has(key string) bool {
	return len(v[key]) > 0
}

// ParsePairs splits a query-string-like text into decoded key/value pairs,
// preserving order and duplicates. Empty segments ("a=1&&b=2") are skipped;
// a segment without "=" becomes a pair with an empty value. Percent
// sequences that fail to decode are kept verbatim rather than dropped, so
// no pair is ever lost to a malformed escape.
func ParsePairs(query string) []Pair {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return nil
	}

	var pairs []Pair
	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		pairs = append(pairs, Pair{
			Key:   decodeComponent(key),
			Value: decodeComponent(value),
		})
	}
	return pairs
}

// ToValues folds ordered pairs into a Values map. Repeated keys append;
// per-key value order matches pair order.
func ToValues(pairs []Pair) Values {
	if len(pairs) == 0 {
		return Values{}
	}
	values := make(Values, len(pairs))
	for _, p := range pairs {
		values[p.Key] = append(values[p.Key], p.Value)
	}
	return values
}

// ParseQuery parses a query string directly into a Values map.
// It is shorthand for ToValues(ParsePairs(query)).
func ParseQuery(query string) Values {
	return ToValues(ParsePairs(query))
}

// decodeComponent decodes a single query component. "+" means space, as in
// form encoding. Undecodable input is returned unchanged.
func decodeComponent(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
