package hashnav

import (
	"context"
	"time"

	"github.com/vango-dev/hashnav/pkg/route"
)

// Guard is a veto-capable callback run before a navigation commits.
// Returning a non-nil error rejects the navigation; the engine rolls the
// address back and reports the error through a status event. Guards may
// block (they run on their own goroutine) and should honor ctx, which is
// cancelled when the engine is destroyed.
type Guard func(ctx context.Context, to, from route.Snapshot) error

// AfterHook is a non-vetoable callback run after a navigation commits.
// Panics are recovered and logged; they never affect the commit or
// sibling hooks.
type AfterHook func(to, from route.Snapshot)

// StatusLevel classifies a status event.
type StatusLevel int

// Status levels, in escalating order of interest.
const (
	LevelInfo StatusLevel = iota
	LevelLoading
	LevelSuccess
	LevelError
)

// String returns the level's lowercase name.
func (l StatusLevel) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelLoading:
		return "loading"
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Status describes a navigation lifecycle event.
type Status struct {
	// Message is a human-readable description.
	Message string

	// Level tags the event severity.
	Level StatusLevel

	// To is the candidate route the event concerns.
	To route.Snapshot

	// From is the route that was current when the cycle started.
	From route.Snapshot
}

// StatusObserver receives navigation status events.
type StatusObserver func(Status)

// ScrollEventType tags a scroll event.
type ScrollEventType int

const (
	// ScrollCapture fires just before a record is stored for a path.
	// Observers may mutate the event's record to enrich what is stored.
	ScrollCapture ScrollEventType = iota

	// ScrollRestore fires when a stored record is about to be replayed.
	ScrollRestore

	// ScrollUpdate fires on every raw viewport scroll with live offsets.
	// Update records are informational and never stored.
	ScrollUpdate
)

// String returns the event type's lowercase name.
func (t ScrollEventType) String() string {
	switch t {
	case ScrollCapture:
		return "capture"
	case ScrollRestore:
		return "restore"
	case ScrollUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Record holds the viewport offsets stored for one route path.
type Record struct {
	// X and Y are the window scroll offsets.
	X, Y float64

	// Extra is a slot for a secondary scrollable region's offset.
	// The engine stores and replays it but never writes it itself;
	// scroll observers own its meaning.
	Extra float64

	// Fields carries observer-attached values, passed through opaquely
	// from capture to restore.
	Fields map[string]any

	// CapturedAt is when the record was taken.
	CapturedAt time.Time
}

// ScrollEvent is delivered to scroll observers.
type ScrollEvent struct {
	// Type tags the event: capture, restore, or update.
	Type ScrollEventType

	// Path is the route path the event concerns.
	Path string

	// Record is the payload. For capture events observers may mutate it
	// before it is stored; for restore events it is the stored record.
	Record *Record
}

// ScrollObserver receives scroll events.
type ScrollObserver func(*ScrollEvent)

// State pairs the committed route with its predecessor.
type State struct {
	// To is the current (last committed) route.
	To route.Snapshot

	// From is the route that was current before the last commit.
	From route.Snapshot
}
