package cellwire

// Derived is the computed node flavor: its value is produced by a compute
// function reading other nodes through the pass's tracking context. Only the
// dependencies actually read during the most recent pass trigger
// recomputation when they change.
type Derived[T any] struct {
	nodeCore[T]
	deps     Deps
	compute  func(*Ctx) (T, error)
	paused   bool
	computed bool
}

// NewDerived creates a computed node over the declared dependency set. The
// compute function runs lazily on first read or subscription unless the
// Eager option is set, and again whenever a dependency it read notifies a
// change.
func NewDerived[T any](g *Graph, deps Deps, compute func(*Ctx) (T, error), opts ...Option[T]) *Derived[T] {
	d := &Derived[T]{deps: deps, compute: compute}
	d.nodeCore = newNodeCore(g, opts)
	if !d.opts.lazy {
		d.recompute(false)
	}
	return d
}

// Get returns the current value, computing it first if the node has never
// run. A cached computation error is returned on every read, by identity,
// until a successful recomputation replaces it. After Dispose, Get keeps
// returning whatever was cached at disposal time.
func (d *Derived[T]) Get() (T, error) {
	if d.state == stateUninitialized {
		if d.disposed {
			var zero T
			return zero, &DisposedError{Node: d.opts.name}
		}
		d.recompute(false)
	}
	return d.cached()
}

// On registers a change listener, performing the initial computation first
// when the node has never run. The returned unsubscribe is idempotent.
func (d *Derived[T]) On(fn func()) func() {
	if d.state == stateUninitialized && !d.disposed {
		d.recompute(false)
	}
	return d.nodeCore.On(fn)
}

// Reset forces one recomputation using the latest dependency values and
// always schedules a notification, even when the result is equal to the
// cached one.
func (d *Derived[T]) Reset() error {
	if d.disposed {
		return &DisposedError{Node: d.opts.name}
	}
	d.recompute(true)
	return nil
}

// Pause makes the node keep its current value: dependency-changed
// notifications are still received but produce no recomputation until
// Resume.
func (d *Derived[T]) Pause() {
	d.paused = true
}

// Resume clears the paused flag, performs one synchronous recompute with the
// latest dependency values and always schedules a notification; resuming is
// itself an observable transition.
func (d *Derived[T]) Resume() {
	if !d.paused {
		return
	}
	d.paused = false
	if d.disposed {
		return
	}
	d.recompute(true)
}

// Paused reports whether the node is currently paused.
func (d *Derived[T]) Paused() bool {
	return d.paused
}

// Hydrate seeds the cache directly, without running the compute function, so
// a derived node can be pre-populated before its first read. It reports
// HydrateSkipped once the node has computed at least once; a hydrated node
// counts as computed, so only the first hydration wins.
func (d *Derived[T]) Hydrate(v T) (HydrateResult, error) {
	if d.disposed {
		return HydrateSkipped, &DisposedError{Node: d.opts.name}
	}
	if d.computed {
		return HydrateSkipped, nil
	}
	d.value = v
	d.err = nil
	d.state = stateValid
	d.computed = true
	return HydrateSuccess, nil
}

func (d *Derived[T]) recompute(force bool) {
	d.runPass(d.deps, d.onDepChanged, d.compute, force)
	d.computed = true
}

func (d *Derived[T]) onDepChanged() {
	if d.disposed || d.paused {
		return
	}
	d.recompute(false)
}

func (d *Derived[T]) anyValue() (any, error) {
	v, err := d.Get()
	return v, err
}
