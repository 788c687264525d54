// Package navtest provides a scriptable in-memory hashnav.Environment for
// tests.
//
// FakeEnvironment models an address bar, a history stack, and a viewport
// without a browser. Tests drive it directly:
//
//	env := navtest.NewFakeEnvironment()
//	nav := hashnav.New(env)
//
//	env.SetHash("#!/products?sort=price")  // simulate a link click
//	env.RunFrames()                        // flush scheduled scroll work
//
// Frame callbacks queue until RunFrames is called, preserving the engine's
// guarantee that scroll restoration happens after the commit's synchronous
// work.
package navtest

import "sync"

// FakeEnvironment is an in-memory implementation of hashnav.Environment.
// All methods are safe for concurrent use.
type FakeEnvironment struct {
	mu sync.Mutex

	// entries is the history stack of fragments; index points at the
	// current entry.
	entries []string
	index   int

	search   string
	elements map[string]bool

	scrollX, scrollY float64

	// LastAnchor records the element id of the most recent smooth scroll.
	lastAnchor string

	frames []func()

	fragmentSubs map[int]func()
	scrollSubs   map[int]func()
	nextSub      int
}

// NewFakeEnvironment returns an environment with an empty address and
// history stack containing the single empty entry.
func NewFakeEnvironment() *FakeEnvironment {
	return &FakeEnvironment{
		entries:      []string{""},
		elements:     make(map[string]bool),
		fragmentSubs: make(map[int]func()),
		scrollSubs:   make(map[int]func()),
	}
}

// Fragment returns the current hash fragment.
func (f *FakeEnvironment) Fragment() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[f.index]
}

// SetFragment rewrites the current entry's fragment in place and fires the
// change notification, like a browser does for any address write.
func (f *FakeEnvironment) SetFragment(fragment string) {
	f.mu.Lock()
	f.entries[f.index] = fragment
	f.mu.Unlock()
	f.notifyFragment()
}

// Search returns the document-level query string.
func (f *FakeEnvironment) Search() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.search
}

// SetSearch sets the document-level query string. No notification fires;
// in a browser, changing the search reloads the page.
func (f *FakeEnvironment) SetSearch(search string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = search
}

// OnFragmentChange registers fn for address-change notifications.
func (f *FakeEnvironment) OnFragmentChange(fn func()) (remove func()) {
	return f.subscribe(f.fragmentSubs, fn)
}

// Push appends a history entry, dropping any forward entries, and fires
// the change notification.
func (f *FakeEnvironment) Push(fragment string) {
	f.mu.Lock()
	f.entries = append(f.entries[:f.index+1], fragment)
	f.index = len(f.entries) - 1
	f.mu.Unlock()
	f.notifyFragment()
}

// Replace swaps the current entry's fragment and fires the change
// notification.
func (f *FakeEnvironment) Replace(fragment string) {
	f.SetFragment(fragment)
}

// Go moves by offset within the stack, clamped to its bounds, and fires
// the change notification when the entry actually changed.
func (f *FakeEnvironment) Go(offset int) {
	f.mu.Lock()
	target := f.index + offset
	if target < 0 {
		target = 0
	}
	if target > len(f.entries)-1 {
		target = len(f.entries) - 1
	}
	moved := target != f.index
	f.index = target
	f.mu.Unlock()
	if moved {
		f.notifyFragment()
	}
}

// Back moves one entry back.
func (f *FakeEnvironment) Back() { f.Go(-1) }

// Forward moves one entry forward.
func (f *FakeEnvironment) Forward() { f.Go(1) }

// Offsets returns the viewport scroll offsets.
func (f *FakeEnvironment) Offsets() (x, y float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrollX, f.scrollY
}

// ScrollTo sets the viewport offsets and fires the scroll notification.
func (f *FakeEnvironment) ScrollTo(x, y float64) {
	f.mu.Lock()
	f.scrollX, f.scrollY = x, y
	f.mu.Unlock()
	f.notifyScroll()
}

// HasElement reports whether AddElement registered the id.
func (f *FakeEnvironment) HasElement(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elements[id]
}

// ScrollToElement records the anchor scroll target.
func (f *FakeEnvironment) ScrollToElement(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAnchor = id
}

// OnScroll registers fn for viewport scroll notifications.
func (f *FakeEnvironment) OnScroll(fn func()) (remove func()) {
	return f.subscribe(f.scrollSubs, fn)
}

// RequestFrame queues fn until the next RunFrames call.
func (f *FakeEnvironment) RequestFrame(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fn)
}

// SetHash simulates a user-driven address change: the fragment is pushed
// as a new history entry and the change notification fires, like clicking
// a hash link in a browser.
func (f *FakeEnvironment) SetHash(fragment string) {
	f.Push(fragment)
}

// Scroll simulates the user scrolling the viewport.
func (f *FakeEnvironment) Scroll(x, y float64) {
	f.ScrollTo(x, y)
}

// AddElement registers an element id for anchor lookups.
func (f *FakeEnvironment) AddElement(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elements[id] = true
}

// LastAnchor returns the element id of the most recent smooth scroll, or
// "" if none happened.
func (f *FakeEnvironment) LastAnchor() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAnchor
}

// RunFrames executes every queued frame callback in order. Callbacks that
// queue further frames run on the next call.
func (f *FakeEnvironment) RunFrames() {
	f.mu.Lock()
	frames := f.frames
	f.frames = nil
	f.mu.Unlock()
	for _, fn := range frames {
		fn()
	}
}

// PendingFrames returns the number of queued frame callbacks.
func (f *FakeEnvironment) PendingFrames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// HistoryLen returns the number of entries in the history stack.
func (f *FakeEnvironment) HistoryLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *FakeEnvironment) subscribe(subs map[int]func(), fn func()) (remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	id := f.nextSub
	subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(subs, id)
	}
}

func (f *FakeEnvironment) notifyFragment() {
	for _, fn := range f.snapshotSubs(f.fragmentSubs) {
		fn()
	}
}

func (f *FakeEnvironment) notifyScroll() {
	for _, fn := range f.snapshotSubs(f.scrollSubs) {
		fn()
	}
}

func (f *FakeEnvironment) snapshotSubs(subs map[int]func()) []func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	fns := make([]func(), 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	return fns
}
