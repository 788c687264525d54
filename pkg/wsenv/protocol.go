package wsenv

// Bridge message ops. The browser shim and the engine side exchange small
// JSON messages; one Message struct covers both directions, with unused
// fields omitted on the wire.

// Client → server events.
const (
	// OpInit is the first message on a connection: full address and
	// scroll state.
	OpInit = "init"

	// OpHashChange reports a fragment change from any source.
	OpHashChange = "hashchange"

	// OpScroll reports a viewport scroll with live offsets.
	OpScroll = "scroll"

	// OpElementResult answers an OpHasElement query, matched by Seq.
	OpElementResult = "element"

	// OpFrameDone answers an OpFrame request after the browser's next
	// animation frame, matched by Seq.
	OpFrameDone = "framedone"
)

// Server → client commands.
const (
	// OpSetFragment rewrites the fragment in place (rollback).
	OpSetFragment = "set"

	// OpPush and OpReplace write the fragment through the history stack.
	OpPush    = "push"
	OpReplace = "replace"

	// OpGo, OpBack and OpForward move within the history stack.
	OpGo      = "go"
	OpBack    = "back"
	OpForward = "forward"

	// OpScrollTo sets the viewport offsets.
	OpScrollTo = "scrollto"

	// OpScrollToElement smooth-scrolls an element into view.
	OpScrollToElement = "scrolltoelement"

	// OpHasElement asks whether an element id exists; the client answers
	// with OpElementResult.
	OpHasElement = "haselement"

	// OpFrame asks for an OpFrameDone after the next animation frame.
	OpFrame = "frame"
)

// Message is one bridge message in either direction.
type Message struct {
	Op       string  `json:"op"`
	Fragment string  `json:"fragment,omitempty"`
	Search   string  `json:"search,omitempty"`
	ID       string  `json:"id,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Offset   int     `json:"offset,omitempty"`
	Seq      uint64  `json:"seq,omitempty"`
	Exists   bool    `json:"exists,omitempty"`
}
