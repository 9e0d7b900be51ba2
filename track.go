package cellwire

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Ctx is the dependency tracking context for one computation pass. A fresh
// one is built for every recomputation, so a node's subscriptions always
// reflect only the inputs its most recent pass actually read: dependency
// discovery is dynamic, not static.
//
// A Ctx is owned exclusively by the node that created it. When the pass is
// superseded or the node disposed, the context's token is cancelled, its
// cleanup chain drained and its tracked set cleared.
type Ctx struct {
	g       *Graph
	name    string
	deps    Deps
	onDep   func()
	tracked mapset.Set[Node]
	token   *Token
	chain   Emitter[struct{}]
}

func newCtx(g *Graph, name string, deps Deps, onDep func()) *Ctx {
	return &Ctx{
		g:       g,
		name:    name,
		deps:    deps,
		onDep:   onDep,
		tracked: mapset.NewThreadUnsafeSet[Node](),
		token:   newToken(),
	}
}

// Get reads the named dependency's current value. The first read of a given
// dependency within this pass also subscribes the recomputation trigger to
// its change notifications; reading the same name again reuses that
// subscription, the tracked set prevents duplicates.
func (c *Ctx) Get(name string) (any, error) {
	n, ok := c.deps[name]
	if !ok {
		return nil, &UnknownDependencyError{Node: c.name, Dep: name}
	}
	v, err := n.anyValue()
	if c.onDep != nil && !c.tracked.Contains(n) {
		c.tracked.Add(n)
		c.OnCleanup(n.subscribe(c.onDep))
	}
	return v, err
}

// Dep reads the named dependency through ctx and asserts its value type.
func Dep[T any](ctx *Ctx, name string) (T, error) {
	v, err := ctx.Get(name)
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cellwire: dependency %q holds %T, not %T", name, v, zero)
	}
	return t, nil
}

// OnCleanup registers a teardown to run when this pass is superseded or its
// node disposed.
func (c *Ctx) OnCleanup(fn func()) {
	c.chain.On(func(struct{}) { fn() })
}

// Token returns the cancellation token scoped to this pass, for handing to
// external asynchronous work.
func (c *Ctx) Token() *Token {
	return c.token
}

// Cancelled reports whether this pass has been superseded or its node
// disposed.
func (c *Ctx) Cancelled() bool {
	return c.token.Cancelled()
}

// Done returns the token's cancellation channel.
func (c *Ctx) Done() <-chan struct{} {
	return c.token.Done()
}

func (c *Ctx) dispose() {
	c.token.cancel()
	c.chain.EmitAndClear(struct{}{})
	c.tracked.Clear()
}
