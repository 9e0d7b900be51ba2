package cellwire

// Source is the mutable node flavor: a reactive memory cell written with Set
// and read with Get. Its initial value (or initializer function) is captured
// at creation and restored by Reset.
type Source[T any] struct {
	nodeCore[T]
	init    func(*Ctx) (T, error)
	written bool
	write   func(T) error
	reset   func() error
}

// NewSource creates a mutable node holding initial. With the default lazy
// mode the value is not cached until the first read.
func NewSource[T any](g *Graph, initial T, opts ...Option[T]) *Source[T] {
	return NewSourceFunc(g, func(*Ctx) (T, error) {
		return initial, nil
	}, opts...)
}

// NewSourceFunc creates a mutable node whose initial value comes from init,
// run lazily on first read unless the Eager option is set. The Ctx handed to
// init carries the pass's cancellation token; sources have no dependencies,
// so its Get always fails.
func NewSourceFunc[T any](g *Graph, init func(*Ctx) (T, error), opts ...Option[T]) *Source[T] {
	s := &Source[T]{init: init}
	s.nodeCore = newNodeCore(g, opts)
	s.write = guardDisposed[T](s, s.applySet)
	s.reset = guardDisposedNullary(s, s.applyReset)
	if !s.opts.lazy {
		s.initialize()
	}
	return s
}

// Get returns the current value, running the initializer first if the node
// has never been established. A cached initialization error is returned on
// every read, by identity, until a successful Reset replaces it. After
// Dispose, Get keeps returning whatever was cached at disposal time.
func (s *Source[T]) Get() (T, error) {
	if s.state == stateUninitialized {
		if s.disposed {
			var zero T
			return zero, &DisposedError{Node: s.opts.name}
		}
		s.initialize()
	}
	return s.cached()
}

// Set replaces the value. Writing a value equal to the current one under the
// equality predicate is a no-op with no notification; any other write marks
// the node as explicitly written, replaces the cache and schedules a
// deferred notification. Set fails with a DisposedError after Dispose.
func (s *Source[T]) Set(v T) error {
	return s.write(v)
}

// SetFunc is Set with a pure updater applied to the current value. An
// uninitialized node is initialized first so the updater sees the captured
// initial value.
func (s *Source[T]) SetFunc(update func(prev T) T) error {
	if s.disposed {
		return &DisposedError{Node: s.opts.name}
	}
	if s.state == stateUninitialized {
		s.initialize()
	}
	return s.write(update(s.value))
}

// Reset restores the captured initial value or initializer, clears the
// written mark and always schedules a notification, even when the effective
// value or error state did not change: a consumer could not otherwise tell
// that a recompute-and-still-erroring reset happened.
func (s *Source[T]) Reset() error {
	return s.reset()
}

// Hydrate seeds the value from an external source, going through the normal
// Set path and then clearing the written mark again so hydration never
// counts as a user edit. It reports HydrateSkipped once the node has been
// explicitly written; only a Reset unlocks hydration again.
func (s *Source[T]) Hydrate(v T) (HydrateResult, error) {
	if s.written {
		return HydrateSkipped, nil
	}
	if err := s.write(v); err != nil {
		return HydrateSkipped, err
	}
	s.written = false
	return HydrateSuccess, nil
}

func (s *Source[T]) initialize() {
	s.runPass(nil, nil, s.init, false)
}

func (s *Source[T]) applySet(v T) {
	if s.state == stateValid && s.opts.equals(s.value, v) {
		return
	}
	s.written = true
	s.integrateValue(v, true)
}

func (s *Source[T]) applyReset() {
	s.written = false
	s.runPass(nil, nil, s.init, true)
}

func (s *Source[T]) anyValue() (any, error) {
	v, err := s.Get()
	return v, err
}
