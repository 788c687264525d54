// Package route builds immutable route snapshots from the browser address
// state.
//
// A route address lives in the hash fragment, after a fixed routing marker:
//
//	https://example.com/index.html?theme=dark#!/products?category=books
//	                               \_________/  \______/ \____________/
//	                                 search       path      hash query
//
// The document-level query string and the fragment's own query suffix are
// parsed independently; both appear on the snapshot in raw and typed form.
package route

import (
	"strings"

	"github.com/vango-dev/hashnav/pkg/param"
)

// DefaultMarker is the routing marker that distinguishes a route address
// from a native in-page anchor ("#!" vs "#section1").
const DefaultMarker = "!"

// Snapshot captures the route at one instant. Snapshots are built fresh on
// every navigation and never mutated afterwards; callers must treat the
// contained maps as read-only.
type Snapshot struct {
	// Path is the fragment path after the marker, without a leading slash
	// and never containing "?".
	Path string

	// Query holds the document-level query string parameters.
	Query param.Values

	// Params holds the parameters from the fragment's own query suffix.
	Params param.Values

	// QueryTyped and ParamsTyped mirror Query and Params with each string
	// coerced to a typed scalar. Key sets and list lengths always match
	// their raw counterparts.
	QueryTyped  map[string][]any
	ParamsTyped map[string][]any
}

// Build constructs a snapshot from the raw fragment (with or without its
// leading "#"), the document-level query string, and the routing marker.
// Build has no side effects and may be called concurrently.
func Build(fragment, search, marker string) Snapshot {
	raw := strings.TrimPrefix(fragment, "#")
	raw = strings.TrimPrefix(raw, marker)
	raw = strings.TrimPrefix(raw, "/")

	path, hashQuery, _ := strings.Cut(raw, "?")

	query := param.ParseQuery(search)
	params := param.ParseQuery(hashQuery)

	return Snapshot{
		Path:        path,
		Query:       query,
		Params:      params,
		QueryTyped:  param.CoerceValues(query),
		ParamsTyped: param.CoerceValues(params),
	}
}

// Empty returns a snapshot with no path and empty (non-nil) parameter
// views, for callers that need a neutral starting value.
func Empty() Snapshot {
	return Snapshot{
		Query:       param.Values{},
		Params:      param.Values{},
		QueryTyped:  map[string][]any{},
		ParamsTyped: map[string][]any{},
	}
}
