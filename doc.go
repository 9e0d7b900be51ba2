// Package cellwire is a reactive dependency graph with deferred notification
// scheduling.
//
// A Source holds a mutable value; a Derived recomputes its value from other
// nodes, discovering which inputs it actually read on every pass. Observers
// subscribe with On and are notified when a node's value changes, with
// notifications coalesced by Graph.Batch so that any number of writes inside
// one batch produce the minimum necessary observer callbacks.
//
// The whole graph is single-threaded and cooperative: reads, writes,
// recomputation, notification and disposal all complete synchronously on the
// calling goroutine. A compute function may kick off asynchronous work of its
// own; the per-pass Token lets that work notice when its result has been
// superseded, but the graph never awaits it.
//
//	g := cellwire.New()
//	a := cellwire.NewSource(g, 1)
//	b := cellwire.NewSource(g, 2)
//	sum := cellwire.NewDerived(g, cellwire.Deps{"a": a, "b": b},
//		func(ctx *cellwire.Ctx) (int, error) {
//			av, err := cellwire.Dep[int](ctx, "a")
//			if err != nil {
//				return 0, err
//			}
//			bv, err := cellwire.Dep[int](ctx, "b")
//			if err != nil {
//				return 0, err
//			}
//			return av + bv, nil
//		})
//
//	off := sum.On(func() { fmt.Println("sum changed") })
//	defer off()
//
//	g.Batch(func() {
//		a.Set(10)
//		b.Set(20)
//	}) // sum's listener fires exactly once
package cellwire
