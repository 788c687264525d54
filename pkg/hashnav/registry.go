package hashnav

import "sync"

// Disposer removes a previously registered callback. Calling it more than
// once is safe; later calls find nothing to remove.
type Disposer func()

// noopDisposer is returned when there is nothing to dispose (nil callback
// or destroyed engine).
var noopDisposer Disposer = func() {}

// entry pairs a callback with the identity its disposer removes it by.
// Func values are not comparable in Go, so removal is keyed by ID rather
// than by the callback itself.
type entry[T any] struct {
	id uint64
	fn T
}

// callbackList is an ordered collection of callbacks. Registration order
// is preserved; fan-outs iterate over a snapshot copy, so a disposer fired
// mid-iteration cannot skip or double-invoke a sibling.
type callbackList[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []entry[T]
}

// add appends fn and returns a disposer that removes exactly this
// registration, if still present.
func (l *callbackList[T]) add(fn T) Disposer {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, entry[T]{id: id, fn: fn})

	return func() { l.remove(id) }
}

// remove deletes the entry with the given ID, preserving the order of the
// remaining entries.
func (l *callbackList[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the callbacks in registration order.
// Membership changes made after the copy affect the next fan-out, not one
// already in flight.
func (l *callbackList[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return nil
	}
	fns := make([]T, len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}

// clear empties the list.
func (l *callbackList[T]) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
