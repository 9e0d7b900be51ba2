package cellwire

import "slices"

// Emitter is the minimal subscribe/notify primitive. Nodes use one for their
// change notifications and another, with a struct{} payload, as a cleanup
// chain. Listeners fire in registration order.
//
// An Emitter's zero value is ready to use. Like the rest of the graph it is
// not safe for concurrent use.
type Emitter[T any] struct {
	listeners []*emitterEntry[T]
}

type emitterEntry[T any] struct {
	fn func(T)
}

// On registers fn and returns its unsubscribe function. The returned
// function is idempotent: calling it more than once is a no-op.
func (e *Emitter[T]) On(fn func(T)) func() {
	entry := &emitterEntry[T]{fn: fn}
	e.listeners = append(e.listeners, entry)
	return func() {
		for i, l := range e.listeners {
			if l == entry {
				e.listeners = slices.Delete(e.listeners, i, i+1)
				return
			}
		}
	}
}

// Emit invokes every listener registered at the time of the call. The
// listener collection is snapshotted first, so listeners unsubscribing
// themselves or others mid-emission neither skip nor double-fire anyone in
// the current pass, and listeners added during emission wait for the next one.
func (e *Emitter[T]) Emit(v T) {
	snapshot := slices.Clone(e.listeners)
	for _, l := range snapshot {
		l.fn(v)
	}
}

// Clear drops all listeners without invoking them.
func (e *Emitter[T]) Clear() {
	e.listeners = nil
}

// EmitAndClear invokes every currently registered listener once and then
// drops them all. Cleanup chains drain themselves with this.
func (e *Emitter[T]) EmitAndClear(v T) {
	snapshot := e.listeners
	e.listeners = nil
	for _, l := range snapshot {
		l.fn(v)
	}
}

// Len reports how many listeners are currently registered.
func (e *Emitter[T]) Len() int {
	return len(e.listeners)
}
