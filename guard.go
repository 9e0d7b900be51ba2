package cellwire

// Token is the cooperative cancellation handle for one computation pass. The
// graph flips it when the pass is superseded by a newer one or when its node
// is disposed; it never force-cancels anything. Asynchronous work launched
// from a compute function should poll Cancelled or select on Done and abort
// voluntarily once its result is known to be stale.
type Token struct {
	done      chan struct{}
	cancelled bool
}

func newToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancelled reports whether the owning computation has been superseded or
// its node disposed. Unlike the rest of the graph it may be polled from any
// goroutine, so it reads the closed channel rather than graph state.
func (t *Token) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the token is cancelled, for use
// in select loops of external asynchronous work.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

func (t *Token) cancel() {
	if t.cancelled {
		return
	}
	t.cancelled = true
	close(t.done)
}

// guardDisposed wraps a mutation so that invoking it after the owning node
// has been torn down fails with a DisposedError instead of executing.
func guardDisposed[A any](n Node, op func(A)) func(A) error {
	return func(v A) error {
		if n.Disposed() {
			return &DisposedError{Node: n.Name()}
		}
		op(v)
		return nil
	}
}

// guardDisposedNullary is guardDisposed for operations that take no argument.
func guardDisposedNullary(n Node, op func()) func() error {
	return func() error {
		if n.Disposed() {
			return &DisposedError{Node: n.Name()}
		}
		op()
		return nil
	}
}
