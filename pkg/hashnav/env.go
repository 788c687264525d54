package hashnav

// AddressBar is the readable/writable address state of the host.
// A browser implementation maps Fragment/SetFragment to location.hash and
// Search to location.search.
type AddressBar interface {
	// Fragment returns the current hash fragment, including its leading
	// "#" when non-empty.
	Fragment() string

	// SetFragment rewrites the fragment in place. Used for rollback; it
	// must not be treated as a user navigation by the implementation,
	// though a change notification may still fire (the engine suppresses
	// it through its own bookkeeping).
	SetFragment(fragment string)

	// Search returns the document-level query string, with or without a
	// leading "?".
	Search() string

	// OnFragmentChange registers fn to run whenever the fragment changes
	// by any means (link click, back/forward, programmatic write). The
	// returned func removes the registration.
	OnFragmentChange(fn func()) (remove func())
}

// History is the host's history stack.
type History interface {
	// Push adds a history entry with the given fragment and makes it
	// current.
	Push(fragment string)

	// Replace swaps the current entry's fragment without adding one.
	Replace(fragment string)

	// Go moves by offset within the stack (negative is back).
	Go(offset int)

	// Back and Forward are single-step conveniences.
	Back()
	Forward()
}

// Viewport is the host's scrollable view.
//
// Optional capabilities degrade gracefully: an implementation with no
// element lookup returns false from HasElement, and one with no frame
// scheduler may run RequestFrame callbacks immediately as long as that
// happens after the caller's synchronous work.
type Viewport interface {
	// Offsets returns the current horizontal and vertical scroll offsets.
	Offsets() (x, y float64)

	// ScrollTo scrolls the viewport to the given offsets.
	ScrollTo(x, y float64)

	// HasElement reports whether an element with the given id exists.
	HasElement(id string) bool

	// ScrollToElement smooth-scrolls the named element into view.
	ScrollToElement(id string)

	// OnScroll registers fn to run on every viewport scroll. The
	// returned func removes the registration.
	OnScroll(fn func()) (remove func())

	// RequestFrame schedules fn for the next render opportunity.
	RequestFrame(fn func())
}

// Environment is the full set of host collaborators the engine drives.
// Implementations include navtest.FakeEnvironment for tests and
// wsenv.Environment for a real browser behind a websocket bridge.
type Environment interface {
	AddressBar
	History
	Viewport
}
