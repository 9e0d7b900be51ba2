package cellwire

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Graph owns the notification scheduler for one reactive graph: the reentrant
// batch depth counter and the pending set of deferred flush actions. Nodes
// are created against a Graph and never share batching state with nodes from
// another one.
//
// A Graph is single-threaded: all recomputation, notification and disposal
// happen synchronously on the calling goroutine.
type Graph struct {
	batchDepth int
	pending    []*flushAction
	pendingSet mapset.Set[*flushAction]
}

// flushAction is one deferred notification side effect. The pending set
// deduplicates by the action's identity, never by originating node, so two
// writes to the same node within one batch still enqueue two actions;
// coalescing of observer-visible notifications falls out of equality gating
// at recompute time instead.
type flushAction struct {
	run func()
}

// New creates an empty reactive graph.
func New() *Graph {
	return &Graph{
		pendingSet: mapset.NewThreadUnsafeSet[*flushAction](),
	}
}

// Batch runs fn with change notifications deferred until the outermost batch
// exits, letting multiple writes coalesce into the minimum necessary observer
// callbacks. Batches nest: inner calls only move the depth counter, and the
// flush happens exactly once when it returns to zero.
//
// The flush runs from a defer, so a panicking fn still delivers every pending
// notification before the panic escapes to Batch's caller.
func (g *Graph) Batch(fn func()) {
	g.batchDepth++
	defer g.exitBatch()
	fn()
}

// RunBatch is Batch for bodies that produce a result. The body must complete
// synchronously; if it hands back a channel-kind value the flush still runs
// but RunBatch reports an AsyncResultError, since deferring notifications
// past an asynchronous boundary would make flush timing ill-defined.
func RunBatch[T any](g *Graph, fn func() (T, error)) (T, error) {
	g.batchDepth++
	defer g.exitBatch()
	out, err := fn()
	if err != nil {
		return out, err
	}
	if t := asyncResultType(out); t != "" {
		return out, &AsyncResultError{Type: t}
	}
	return out, nil
}

// IsBatching reports whether a batch is currently open on this graph.
func (g *Graph) IsBatching() bool {
	return g.batchDepth > 0
}

func (g *Graph) exitBatch() {
	g.batchDepth--
	if g.batchDepth != 0 {
		return
	}
	// Flush in insertion order. Actions scheduled while flushing run
	// immediately (depth is already zero), so this loop only guards against
	// an action reopening a batch and leaving new deferred work behind.
	for len(g.pending) > 0 {
		actions := g.pending
		g.pending = nil
		g.pendingSet.Clear()
		for _, a := range actions {
			a.run()
		}
	}
}

// schedule defers fn until the outermost batch exits, or runs it immediately
// and synchronously when no batch is open.
func (g *Graph) schedule(fn func()) {
	g.scheduleAction(&flushAction{run: fn})
}

func (g *Graph) scheduleAction(a *flushAction) {
	if g.batchDepth == 0 {
		a.run()
		return
	}
	if g.pendingSet.Contains(a) {
		return
	}
	g.pendingSet.Add(a)
	g.pending = append(g.pending, a)
}

func asyncResultType(v any) string {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.Chan {
		return rv.Type().String()
	}
	return ""
}
