package cellwire

// Node is the untyped surface shared by Source and Derived. It is what a
// dependency map holds, letting one derived node read inputs of different
// value types.
type Node interface {
	// Name returns the node's display name, or "" if it has none.
	Name() string

	// Disposed reports whether Dispose has run.
	Disposed() bool

	// On registers a change listener and returns its idempotent unsubscribe
	// function. Subscribing to an uninitialized derived node performs its
	// initial computation first.
	On(fn func()) func()

	// OnCleanup registers fn to run once when the node is disposed.
	OnCleanup(fn func())

	// Dispose permanently tears the node down: it cancels in-flight work,
	// unsubscribes from dependencies, clears listeners and runs the node's
	// cleanup chain. Reads keep returning the last cached result; mutation
	// and recomputation are rejected. Dispose is idempotent.
	Dispose()

	graph() *Graph
	anyValue() (any, error)
	subscribe(fn func()) func()
}

// Deps declares a derived node's dependency set, keyed by the stable handle
// names its compute function reads through Ctx.
type Deps map[string]Node

// HydrateResult reports whether a Hydrate call seeded the node or was
// rejected by its gate.
type HydrateResult string

const (
	HydrateSuccess HydrateResult = "success"
	HydrateSkipped HydrateResult = "skipped"
)

type nodeState uint8

const (
	stateUninitialized nodeState = iota
	stateValid
	stateErrored
)

// nodeCore carries everything Source and Derived share: the cached result
// slot, the change emitter, the node-level cleanup chain and the live
// tracking context of the most recent computation pass.
type nodeCore[T any] struct {
	g        *Graph
	opts     options[T]
	state    nodeState
	disposed bool
	value    T
	err      error
	changed  Emitter[struct{}]
	cleanups Emitter[struct{}]
	ctx      *Ctx
}

func newNodeCore[T any](g *Graph, opts []Option[T]) nodeCore[T] {
	return nodeCore[T]{g: g, opts: newOptions(opts)}
}

// Name returns the node's display name, or "" if it has none.
func (c *nodeCore[T]) Name() string {
	return c.opts.name
}

// Disposed reports whether Dispose has run.
func (c *nodeCore[T]) Disposed() bool {
	return c.disposed
}

func (c *nodeCore[T]) graph() *Graph {
	return c.g
}

// On registers a change listener and returns its idempotent unsubscribe
// function.
func (c *nodeCore[T]) On(fn func()) func() {
	if c.disposed {
		return func() {}
	}
	return c.subscribe(fn)
}

func (c *nodeCore[T]) subscribe(fn func()) func() {
	return c.changed.On(func(struct{}) { fn() })
}

// OnCleanup registers fn to run once when the node is disposed.
func (c *nodeCore[T]) OnCleanup(fn func()) {
	c.cleanups.On(func(struct{}) { fn() })
}

// Peek returns the cached result without triggering initialization or any
// dependency bookkeeping. An uninitialized node yields its zero value.
func (c *nodeCore[T]) Peek() (T, error) {
	return c.cached()
}

// Dispose permanently tears the node down. Idempotent.
func (c *nodeCore[T]) Dispose() {
	if c.disposed {
		return
	}
	if c.ctx != nil {
		c.ctx.dispose()
		c.ctx = nil
	}
	c.changed.Clear()
	c.cleanups.EmitAndClear(struct{}{})
	c.disposed = true
}

func (c *nodeCore[T]) cached() (T, error) {
	if c.state == stateErrored {
		var zero T
		return zero, c.err
	}
	return c.value, nil
}

// runPass executes one computation pass: tear down the previous tracking
// context (unsubscribing the prior pass's dependencies and cancelling its
// token), build a fresh one, run fn, and integrate the result. onDepChange is
// nil for sources, which have no dependencies by construction.
func (c *nodeCore[T]) runPass(deps Deps, onDepChange func(), fn func(*Ctx) (T, error), force bool) {
	if c.ctx != nil {
		c.ctx.dispose()
	}
	c.ctx = newCtx(c.g, c.opts.name, deps, onDepChange)
	v, err := fn(c.ctx)
	if err != nil {
		c.integrateFailure(err, force)
		return
	}
	c.integrateValue(v, force)
}

// integrateValue installs v as the cached value. A notification is scheduled
// when the value changed under the equality predicate, unconditionally when
// the node previously held an error, and never on the very first computation
// (there is no previous value for the predicate to compare against). force
// overrides the gate for transitions that must stay observable, like reset
// and resume.
func (c *nodeCore[T]) integrateValue(v T, force bool) {
	prev := c.state
	changed := prev == stateErrored || (prev == stateValid && !c.opts.equals(c.value, v))
	c.value = v
	c.err = nil
	c.state = stateValid
	if force || changed {
		c.notifyChange(v)
	}
}

// integrateFailure caches err, consulting the fallback first when one is
// configured. Failures never propagate out of a pass; they surface on the
// read path as the cached error, returned by identity on every read until a
// successful recomputation replaces it.
func (c *nodeCore[T]) integrateFailure(err error, force bool) {
	prevValid := c.state == stateValid
	if c.opts.onError != nil {
		c.opts.onError(err)
	}
	if c.opts.fallback != nil {
		fv, ferr := c.opts.fallback(err)
		if ferr == nil {
			c.integrateValue(fv, force)
			return
		}
		err = &FallbackError{Node: c.opts.name, Cause: err, FallbackCause: ferr}
	}
	var zero T
	c.value = zero
	c.err = err
	c.state = stateErrored
	if force || prevValid {
		c.notifyGeneric()
	}
}

// notifyChange schedules the value-changed callback followed by the generic
// change emission.
func (c *nodeCore[T]) notifyChange(v T) {
	c.g.schedule(func() {
		if c.opts.onChange != nil {
			c.opts.onChange(v)
		}
		c.changed.Emit(struct{}{})
	})
}

// notifyGeneric schedules only the generic change emission, used for error
// transitions where there is no new value to hand to onChange.
func (c *nodeCore[T]) notifyGeneric() {
	c.g.schedule(func() {
		c.changed.Emit(struct{}{})
	})
}
