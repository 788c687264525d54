package hashnav

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/vango-dev/hashnav/pkg/route"
)

// Engine is the hash-fragment navigation controller. It watches the
// environment's address state, runs registered guards before committing a
// navigation, notifies hooks and observers after commit, and replays
// per-route scroll offsets.
//
// An Engine owns no global state; independent instances (one per test,
// say) can coexist as long as they drive separate environments.
type Engine struct {
	env    Environment
	marker string
	logger *slog.Logger
	tracer trace.Tracer

	// destroyed is the teardown latch. Once set, every public operation
	// is a no-op returning a neutral value.
	destroyed atomic.Bool

	// lastAddr is the fragment recorded at the end of the last completed
	// cycle. Redundant change notifications for the same fragment are
	// dropped, which also keeps rollback writes from re-entering the
	// state machine.
	lastAddr atomic.String

	// mu guards the current/previous snapshot pair.
	mu       sync.Mutex
	current  route.Snapshot
	previous route.Snapshot

	guards    callbackList[Guard]
	after     callbackList[AfterHook]
	status    callbackList[StatusObserver]
	scrollObs callbackList[ScrollObserver]
	scroll    *scrollMemory

	removeFragmentObserver func()
	removeScrollObserver   func()

	// baseCtx is the parent of every guard invocation; it is cancelled
	// on Destroy. Guard phases have no timeout of their own: a guard
	// that never settles hangs its cycle.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New constructs an engine bound to env, installs the address-change and
// scroll observers, and runs one full navigation cycle for whatever
// address is already present, so the initial route commits exactly like a
// navigated-to one.
func New(env Environment, opts ...Option) *Engine {
	cfg := config{
		marker: route.DefaultMarker,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())

	initial := route.Build(env.Fragment(), env.Search(), cfg.marker)
	e := &Engine{
		env:      env,
		marker:   cfg.marker,
		logger:   cfg.logger,
		tracer:   cfg.tracer,
		current:  initial,
		previous: initial,
		scroll:   newScrollMemory(),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	e.lastAddr.Store(env.Fragment())

	e.removeFragmentObserver = env.OnFragmentChange(e.handleFragmentChange)
	e.removeScrollObserver = env.OnScroll(e.handleViewportScroll)

	// Initial cycle. No guards can be registered yet, so this always
	// commits; it exists for the status/scroll side effects and so that
	// previous starts as a copy of current.
	navCtx, span := e.startSpan(ctx, initial)
	if e.canNavigate(navCtx, initial) {
		e.completeNavigation(initial)
		e.endSpan(span, true)
	} else {
		e.endSpan(span, false)
	}

	return e
}

// SubscribeBefore registers a guard for the before phase and immediately
// invokes it once, synchronously, with the current and previous routes, so
// a late subscriber sees the present state without waiting for the next
// navigation. The immediate call cannot veto anything; its error is only
// logged.
func (e *Engine) SubscribeBefore(guard Guard) Disposer {
	if guard == nil || e.destroyed.Load() {
		return noopDisposer
	}
	disposer := e.guards.add(guard)

	e.mu.Lock()
	to, from := e.current, e.previous
	e.mu.Unlock()
	if err := e.runGuard(e.baseCtx, guard, to, from); err != nil {
		e.logger.Debug("guard rejected present route on subscribe",
			"path", to.Path, "error", err)
	}
	return disposer
}

// SubscribeAfter registers a hook for the after phase. Hooks fire in
// registration order once a navigation commits; they cannot veto.
func (e *Engine) SubscribeAfter(hook AfterHook) Disposer {
	if hook == nil || e.destroyed.Load() {
		return noopDisposer
	}
	return e.after.add(hook)
}

// OnStatus registers an observer for navigation status events.
func (e *Engine) OnStatus(observer StatusObserver) Disposer {
	if observer == nil || e.destroyed.Load() {
		return noopDisposer
	}
	return e.status.add(observer)
}

// OnScroll registers an observer for scroll capture/restore/update events.
func (e *Engine) OnScroll(observer ScrollObserver) Disposer {
	if observer == nil || e.destroyed.Load() {
		return noopDisposer
	}
	return e.scrollObs.add(observer)
}

// Push navigates to path, adding a history entry on success. The address
// is written only after every guard approves; the return value reports
// whether the navigation committed.
func (e *Engine) Push(ctx context.Context, path string) bool {
	return e.request(ctx, path, false)
}

// Replace is Push without a new history entry.
func (e *Engine) Replace(ctx context.Context, path string) bool {
	return e.request(ctx, path, true)
}

// CurrentRoute returns the last committed route snapshot. It remains
// readable after Destroy.
func (e *Engine) CurrentRoute() route.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// PreviousRoute returns the route that was current before the last commit.
func (e *Engine) PreviousRoute() route.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previous
}

// RouteState returns the current/previous pair in one consistent read.
func (e *Engine) RouteState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{To: e.current, From: e.previous}
}

// TypedParams returns the current route's coerced hash-query parameters.
func (e *Engine) TypedParams() map[string][]any {
	return e.CurrentRoute().ParamsTyped
}

// TypedQuery returns the current route's coerced document-level query
// parameters.
func (e *Engine) TypedQuery() map[string][]any {
	return e.CurrentRoute().QueryTyped
}

// SaveScrollPosition captures the viewport offsets for path, or for the
// current route's path when path is empty.
func (e *Engine) SaveScrollPosition(path string) {
	if e.destroyed.Load() {
		return
	}
	if path == "" {
		path = e.CurrentRoute().Path
	}
	e.captureScroll(path)
}

// RestoreScrollPosition schedules a replay of the stored offsets for path,
// or for the current route's path when path is empty.
func (e *Engine) RestoreScrollPosition(path string) {
	if e.destroyed.Load() {
		return
	}
	if path == "" {
		path = e.CurrentRoute().Path
	}
	e.restoreScroll(path)
}

// ClearScrollHistory empties the scroll memory table. Restorations already
// scheduled still run.
func (e *Engine) ClearScrollHistory() {
	if e.destroyed.Load() {
		return
	}
	e.scroll.clear()
}

// Go moves by offset in the history stack. The resulting address change
// arrives through the environment's change notification.
func (e *Engine) Go(offset int) {
	if e.destroyed.Load() {
		return
	}
	e.env.Go(offset)
}

// Back moves one entry back in the history stack.
func (e *Engine) Back() {
	if e.destroyed.Load() {
		return
	}
	e.env.Back()
}

// Forward moves one entry forward in the history stack.
func (e *Engine) Forward() {
	if e.destroyed.Load() {
		return
	}
	e.env.Forward()
}

// Destroy tears the engine down: it releases both environment observers,
// cancels outstanding guard contexts, and empties every registry and the
// scroll table. Destroy is idempotent, and afterwards every public
// operation is a safe no-op.
func (e *Engine) Destroy() {
	if !e.destroyed.CompareAndSwap(false, true) {
		return
	}
	e.cancel()
	e.lastAddr.Store("")
	if e.removeFragmentObserver != nil {
		e.removeFragmentObserver()
	}
	if e.removeScrollObserver != nil {
		e.removeScrollObserver()
	}
	e.guards.clear()
	e.after.clear()
	e.status.clear()
	e.scrollObs.clear()
	e.scroll.clear()
}

// handleFragmentChange reacts to an environment address-change
// notification: native anchors bypass the state machine entirely,
// unchanged addresses are dropped, and everything else runs a full
// guard/commit cycle with rollback on veto.
func (e *Engine) handleFragmentChange() {
	if e.destroyed.Load() {
		return
	}
	frag := e.env.Fragment()

	if e.scrollToAnchor(frag) {
		return
	}
	if frag == e.lastAddr.Load() {
		return
	}

	candidate := route.Build(frag, e.env.Search(), e.marker)
	ctx, span := e.startSpan(e.baseCtx, candidate)
	if !e.canNavigate(ctx, candidate) {
		e.endSpan(span, false)
		e.rollback()
		return
	}
	e.lastAddr.Store(frag)
	e.completeNavigation(candidate)
	e.endSpan(span, true)
}

// request is the programmatic navigation entry point shared by Push and
// Replace. The candidate is built from the target fragment; the address is
// written only after the guard phase succeeds.
//
// Overlapping requests are not serialized: two back-to-back calls race
// through their guard phases independently, and whichever commits later
// wins the current/previous pair. Callers that need mutual exclusion must
// provide it themselves.
func (e *Engine) request(ctx context.Context, path string, replace bool) bool {
	if e.destroyed.Load() {
		return false
	}
	if ctx == nil {
		ctx = e.baseCtx
	}

	frag := e.formatFragment(path)
	candidate := route.Build(frag, e.env.Search(), e.marker)

	ctx, span := e.startSpan(ctx, candidate)
	if !e.canNavigate(ctx, candidate) {
		e.endSpan(span, false)
		e.rollback()
		return false
	}

	e.lastAddr.Store(frag)
	if replace {
		e.env.Replace(frag)
	} else {
		e.env.Push(frag)
	}
	e.completeNavigation(candidate)
	e.endSpan(span, true)
	return true
}

// canNavigate runs the before phase for candidate: emits the loading
// status, captures the scroll record for the route being left, and
// dispatches every guard concurrently. It fails on the first guard error;
// stragglers keep running in the background but their results are
// discarded. Guards are expected to be side-effect-light: a late failure
// does not undo what earlier-succeeding guards already did.
func (e *Engine) canNavigate(ctx context.Context, candidate route.Snapshot) bool {
	e.mu.Lock()
	from := e.current
	e.mu.Unlock()

	e.emitStatus(Status{
		Message: "navigating to " + candidate.Path,
		Level:   LevelLoading,
		To:      candidate,
		From:    from,
	})

	if from.Path != "" {
		e.captureScroll(from.Path)
	}

	guards := e.guards.snapshot()
	if len(guards) == 0 {
		return true
	}

	// Buffered so stragglers never block after a first failure returns.
	results := make(chan error, len(guards))
	for _, g := range guards {
		g := g
		go func() {
			results <- e.runGuard(ctx, g, candidate, from)
		}()
	}

	for range guards {
		err := <-results
		if err == nil {
			continue
		}
		e.logger.Error("navigation rejected by guard",
			"path", candidate.Path, "error", err)
		e.emitStatus(Status{
			Message: "navigation blocked: " + err.Error(),
			Level:   LevelError,
			To:      candidate,
			From:    from,
		})
		return false
	}
	return true
}

// completeNavigation commits candidate: previous takes the old current,
// current takes the candidate, after-hooks fan out in registration order,
// the candidate's scroll record is replayed, and a success status fires.
func (e *Engine) completeNavigation(candidate route.Snapshot) {
	e.mu.Lock()
	from := e.current
	e.previous = from
	e.current = candidate
	e.mu.Unlock()

	for _, hook := range e.after.snapshot() {
		e.invokeAfterHook(hook, candidate, from)
	}
	e.restoreScroll(candidate.Path)

	e.emitStatus(Status{
		Message: "navigation complete",
		Level:   LevelSuccess,
		To:      candidate,
		From:    from,
	})
}

// rollback rewrites the address to the last committed path after a guard
// veto. The last-address bookkeeping is updated first so the rewrite does
// not re-enter the state machine.
func (e *Engine) rollback() {
	e.mu.Lock()
	path := e.current.Path
	e.mu.Unlock()

	frag := ""
	if path != "" {
		frag = e.formatFragment(path)
	}
	e.lastAddr.Store(frag)
	e.env.SetFragment(frag)
}

// scrollToAnchor reports whether frag names an in-page element rather than
// a route, and smooth-scrolls to it when it does. Anchors bypass the state
// machine completely: no snapshot is built and no guard runs.
func (e *Engine) scrollToAnchor(frag string) bool {
	raw := strings.TrimPrefix(frag, "#")
	if raw == "" || strings.HasPrefix(raw, e.marker) {
		return false
	}
	if !e.env.HasElement(raw) {
		return false
	}
	e.env.ScrollToElement(raw)
	return true
}

// captureScroll stores a record of the current viewport offsets for path.
// Scroll observers see the record before it is stored and may enrich it;
// whatever they leave in it is what gets stored.
func (e *Engine) captureScroll(path string) {
	x, y := e.env.Offsets()
	rec := &Record{X: x, Y: y, CapturedAt: time.Now()}
	e.emitScroll(&ScrollEvent{Type: ScrollCapture, Path: path, Record: rec})
	e.scroll.put(path, rec)
}

// restoreScroll replays the stored record for path, if any, on the
// environment's next render opportunity. Observers are notified
// synchronously so they can replay any fields they attached at capture.
func (e *Engine) restoreScroll(path string) {
	rec, ok := e.scroll.get(path)
	if !ok {
		return
	}
	e.emitScroll(&ScrollEvent{Type: ScrollRestore, Path: path, Record: rec})
	e.env.RequestFrame(func() {
		e.env.ScrollTo(rec.X, rec.Y)
	})
}

// handleViewportScroll forwards raw environment scroll notifications to
// scroll observers as update events. Update records are never stored.
func (e *Engine) handleViewportScroll() {
	if e.destroyed.Load() {
		return
	}
	x, y := e.env.Offsets()
	e.emitScroll(&ScrollEvent{
		Type:   ScrollUpdate,
		Path:   e.CurrentRoute().Path,
		Record: &Record{X: x, Y: y, CapturedAt: time.Now()},
	})
}

// runGuard invokes one guard, converting a panic into a veto error.
func (e *Engine) runGuard(ctx context.Context, g Guard, to, from route.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("guard panic: %v", r)
		}
	}()
	return g(ctx, to, from)
}

// invokeAfterHook runs one after-hook, isolating panics from the commit
// and from sibling hooks.
func (e *Engine) invokeAfterHook(hook AfterHook, to, from route.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("after-hook panicked", "path", to.Path, "panic", r)
		}
	}()
	hook(to, from)
}

// emitStatus fans a status event out to observers in registration order.
// A panicking observer is logged and skipped; its siblings still run.
func (e *Engine) emitStatus(s Status) {
	for _, observer := range e.status.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("status observer panicked", "panic", r)
				}
			}()
			observer(s)
		}()
	}
}

// emitScroll fans a scroll event out to observers in registration order,
// with the same fault isolation as emitStatus.
func (e *Engine) emitScroll(ev *ScrollEvent) {
	for _, observer := range e.scrollObs.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("scroll observer panicked", "panic", r)
				}
			}()
			observer(ev)
		}()
	}
}

// formatFragment renders a target path as a full fragment. A path already
// starting with the marker is treated as pre-formatted; otherwise leading
// slashes are stripped and the marker is prepended.
func (e *Engine) formatFragment(path string) string {
	if strings.HasPrefix(path, e.marker) {
		return "#" + path
	}
	return "#" + e.marker + "/" + strings.TrimLeft(path, "/")
}

// startSpan opens a navigation span when tracing is configured. Without a
// tracer it returns a no-op span, so callers never nil-check.
func (e *Engine) startSpan(ctx context.Context, candidate route.Snapshot) (context.Context, trace.Span) {
	if e.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return e.tracer.Start(ctx, "hashnav.navigate",
		trace.WithAttributes(attribute.String("hashnav.path", candidate.Path)))
}

// endSpan records the cycle outcome and closes the span.
func (e *Engine) endSpan(span trace.Span, committed bool) {
	span.SetAttributes(attribute.Bool("hashnav.committed", committed))
	if !committed {
		span.SetStatus(codes.Error, "navigation vetoed")
	}
	span.End()
}
