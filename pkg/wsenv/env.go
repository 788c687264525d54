// Package wsenv implements hashnav.Environment over a websocket bridge to
// a real browser.
//
// A small JavaScript shim in the page forwards hashchange and scroll
// events to the Go side and executes address, history and scroll commands
// it receives back. The Go side caches the address and scroll state from
// those events, so the synchronous reads the engine performs (Fragment,
// Search, Offsets) never block on the network. The two genuinely
// round-trip operations — element existence queries and animation-frame
// scheduling — are matched by sequence number; element queries time out to
// "absent", degrading anchor detection to a no-op on a slow link.
package wsenv

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultQueryTimeout bounds how long HasElement waits for the browser's
// answer before treating the element as absent.
const DefaultQueryTimeout = 500 * time.Millisecond

// Environment is a hashnav.Environment driving a browser at the far end
// of a websocket connection.
type Environment struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	timeout time.Duration

	// writeMu serializes writes; gorilla connections allow one
	// concurrent writer.
	writeMu sync.Mutex

	// mu guards the cached browser state and the subscriber maps.
	mu       sync.Mutex
	fragment string
	search   string
	x, y     float64

	fragmentSubs map[int]func()
	scrollSubs   map[int]func()
	nextSub      int

	// pendingMu guards the in-flight request/reply state.
	pendingMu    sync.Mutex
	nextSeq      uint64
	elementWaits map[uint64]chan bool
	frameWaits   map[uint64]func()

	// events serializes engine-facing callbacks onto one worker
	// goroutine. The read loop itself must stay free to deliver element
	// query replies: a guard or anchor check running on the event
	// goroutine may be blocked inside HasElement waiting for one.
	events chan func()

	closeOnce sync.Once
	closed    chan struct{}
}

// EnvOption configures an Environment.
type EnvOption func(*Environment)

// WithLogger sets the bridge logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) EnvOption {
	return func(e *Environment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithQueryTimeout sets the HasElement round-trip timeout.
func WithQueryTimeout(d time.Duration) EnvOption {
	return func(e *Environment) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Accept wraps an upgraded connection and blocks until the shim's init
// message arrives, so the returned environment starts with a populated
// address and scroll cache. The caller must then run Listen.
func Accept(conn *websocket.Conn, opts ...EnvOption) (*Environment, error) {
	e := &Environment{
		conn:         conn,
		logger:       slog.Default(),
		timeout:      DefaultQueryTimeout,
		fragmentSubs: make(map[int]func()),
		scrollSubs:   make(map[int]func()),
		elementWaits: make(map[uint64]chan bool),
		frameWaits:   make(map[uint64]func()),
		events:       make(chan func(), 64),
		closed:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.fragment = msg.Fragment
	e.search = msg.Search
	e.x, e.y = msg.X, msg.Y
	e.mu.Unlock()

	return e, nil
}

// Listen reads bridge events until the connection closes. Engine
// callbacks (address changes, scroll updates, frame callbacks) run on a
// single event goroutine in arrival order, preserving the cooperative
// event ordering the engine expects while the read loop stays available
// for query replies.
func (e *Environment) Listen() {
	defer e.Close()
	go e.eventLoop()
	for {
		var msg Message
		if err := e.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				e.logger.Debug("bridge read ended", "error", err)
			}
			return
		}
		e.dispatch(msg)
	}
}

// eventLoop runs queued engine-facing callbacks until Close.
func (e *Environment) eventLoop() {
	for {
		select {
		case fn := <-e.events:
			fn()
		case <-e.closed:
			return
		}
	}
}

// enqueue hands fn to the event goroutine, dropping it if the bridge is
// closed or the queue is saturated (a stalled engine should shed scroll
// chatter rather than wedge the read loop).
func (e *Environment) enqueue(fn func()) {
	select {
	case e.events <- fn:
	case <-e.closed:
	default:
	}
}

// Close shuts the bridge down. Pending element queries resolve to absent;
// pending frame callbacks are dropped.
func (e *Environment) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.conn.Close()

		e.pendingMu.Lock()
		for seq, ch := range e.elementWaits {
			delete(e.elementWaits, seq)
			ch <- false
		}
		e.frameWaits = make(map[uint64]func())
		e.pendingMu.Unlock()
	})
}

// Done is closed when the connection ends.
func (e *Environment) Done() <-chan struct{} {
	return e.closed
}

// Fragment returns the cached hash fragment.
func (e *Environment) Fragment() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fragment
}

// SetFragment rewrites the fragment in place on the browser side and in
// the local cache.
func (e *Environment) SetFragment(fragment string) {
	e.mu.Lock()
	e.fragment = fragment
	e.mu.Unlock()
	e.send(Message{Op: OpSetFragment, Fragment: fragment})
}

// Search returns the cached document-level query string.
func (e *Environment) Search() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search
}

// OnFragmentChange registers fn for shim hashchange events.
func (e *Environment) OnFragmentChange(fn func()) (remove func()) {
	return e.subscribe(e.fragmentSubs, fn)
}

// Push writes fragment as a new history entry.
func (e *Environment) Push(fragment string) {
	e.mu.Lock()
	e.fragment = fragment
	e.mu.Unlock()
	e.send(Message{Op: OpPush, Fragment: fragment})
}

// Replace writes fragment over the current history entry.
func (e *Environment) Replace(fragment string) {
	e.mu.Lock()
	e.fragment = fragment
	e.mu.Unlock()
	e.send(Message{Op: OpReplace, Fragment: fragment})
}

// Go moves by offset in the browser history. The resulting fragment
// arrives back as a hashchange event.
func (e *Environment) Go(offset int) {
	e.send(Message{Op: OpGo, Offset: offset})
}

// Back moves one history entry back.
func (e *Environment) Back() {
	e.send(Message{Op: OpBack})
}

// Forward moves one history entry forward.
func (e *Environment) Forward() {
	e.send(Message{Op: OpForward})
}

// Offsets returns the cached viewport offsets.
func (e *Environment) Offsets() (x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.x, e.y
}

// ScrollTo scrolls the browser viewport.
func (e *Environment) ScrollTo(x, y float64) {
	e.mu.Lock()
	e.x, e.y = x, y
	e.mu.Unlock()
	e.send(Message{Op: OpScrollTo, X: x, Y: y})
}

// HasElement asks the browser whether an element id exists, waiting at
// most the configured query timeout. Timeout and connection loss both
// report absence.
func (e *Environment) HasElement(id string) bool {
	ch := make(chan bool, 1)

	e.pendingMu.Lock()
	e.nextSeq++
	seq := e.nextSeq
	e.elementWaits[seq] = ch
	e.pendingMu.Unlock()

	e.send(Message{Op: OpHasElement, ID: id, Seq: seq})

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	select {
	case exists := <-ch:
		return exists
	case <-timer.C:
	case <-e.closed:
	}

	e.pendingMu.Lock()
	delete(e.elementWaits, seq)
	e.pendingMu.Unlock()
	return false
}

// ScrollToElement smooth-scrolls the named element into view.
func (e *Environment) ScrollToElement(id string) {
	e.send(Message{Op: OpScrollToElement, ID: id})
}

// OnScroll registers fn for shim scroll events.
func (e *Environment) OnScroll(fn func()) (remove func()) {
	return e.subscribe(e.scrollSubs, fn)
}

// RequestFrame schedules fn for the browser's next animation frame. The
// callback runs on the event goroutine when the frame acknowledgment
// arrives; it is dropped if the connection closes first.
func (e *Environment) RequestFrame(fn func()) {
	e.pendingMu.Lock()
	e.nextSeq++
	seq := e.nextSeq
	e.frameWaits[seq] = fn
	e.pendingMu.Unlock()

	e.send(Message{Op: OpFrame, Seq: seq})
}

// dispatch routes one client event.
func (e *Environment) dispatch(msg Message) {
	switch msg.Op {
	case OpInit:
		e.mu.Lock()
		e.fragment = msg.Fragment
		e.search = msg.Search
		e.x, e.y = msg.X, msg.Y
		e.mu.Unlock()

	case OpHashChange:
		e.mu.Lock()
		e.fragment = msg.Fragment
		e.mu.Unlock()
		e.enqueue(func() {
			for _, fn := range e.snapshotSubs(e.fragmentSubs) {
				fn()
			}
		})

	case OpScroll:
		e.mu.Lock()
		e.x, e.y = msg.X, msg.Y
		e.mu.Unlock()
		e.enqueue(func() {
			for _, fn := range e.snapshotSubs(e.scrollSubs) {
				fn()
			}
		})

	case OpElementResult:
		e.pendingMu.Lock()
		ch, ok := e.elementWaits[msg.Seq]
		delete(e.elementWaits, msg.Seq)
		e.pendingMu.Unlock()
		if ok {
			ch <- msg.Exists
		}

	case OpFrameDone:
		e.pendingMu.Lock()
		fn, ok := e.frameWaits[msg.Seq]
		delete(e.frameWaits, msg.Seq)
		e.pendingMu.Unlock()
		if ok {
			e.enqueue(fn)
		}

	default:
		e.logger.Debug("unknown bridge op", "op", msg.Op)
	}
}

// send writes one command, logging and closing on failure.
func (e *Environment) send(msg Message) {
	e.writeMu.Lock()
	err := e.conn.WriteJSON(msg)
	e.writeMu.Unlock()
	if err != nil {
		e.logger.Debug("bridge write failed", "op", msg.Op, "error", err)
		e.Close()
	}
}

func (e *Environment) subscribe(subs map[int]func(), fn func()) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	id := e.nextSub
	subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(subs, id)
	}
}

func (e *Environment) snapshotSubs(subs map[int]func()) []func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	fns := make([]func(), 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	return fns
}
