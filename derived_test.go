package cellwire_test

import (
	"errors"
	"testing"

	"github.com/cellwire/cellwire"
	"github.com/stretchr/testify/assert"
)

// the compute function must not run before the first read or subscription,
// and runs at most once per generation
func TestDerivedLaziness(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 2)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		av, err := cellwire.Dep[int](ctx, "a")
		return av * av, err
	})

	assert.Equal(t, 0, computeRuns)
	assert.Equal(t, 4, mustGet[int](t, d))
	assert.Equal(t, 1, computeRuns)

	mustGet[int](t, d)
	mustGet[int](t, d)
	assert.Equal(t, 1, computeRuns)

	assert.NoError(t, a.Set(3))
	assert.Equal(t, 2, computeRuns)
	assert.Equal(t, 9, mustGet[int](t, d))
}

// subscribing to an uninitialized derived node performs the initial
// computation
func TestDerivedOnTriggersInitialCompute(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})

	notified := 0
	d.On(func() { notified++ })

	assert.Equal(t, 1, computeRuns)
	assert.Equal(t, 0, notified, "the initial computation is not a change")

	assert.NoError(t, a.Set(5))
	assert.Equal(t, 1, notified)
}

// only the input actually read in the most recent pass triggers recomputation
func TestDerivedDynamicDependencyTracking(t *testing.T) {
	g := cellwire.New()
	useA := cellwire.NewSource(g, true)
	a := cellwire.NewSource(g, "a0")
	b := cellwire.NewSource(g, "b0")

	computeRuns := 0
	pick := cellwire.NewDerived(g, cellwire.Deps{"useA": useA, "a": a, "b": b},
		func(ctx *cellwire.Ctx) (string, error) {
			computeRuns++
			flag, err := cellwire.Dep[bool](ctx, "useA")
			if err != nil {
				return "", err
			}
			if flag {
				return cellwire.Dep[string](ctx, "a")
			}
			return cellwire.Dep[string](ctx, "b")
		})

	assert.Equal(t, "a0", mustGet[string](t, pick))
	assert.Equal(t, 1, computeRuns)

	assert.NoError(t, b.Set("b1"))
	assert.Equal(t, 1, computeRuns, "the unread branch must not trigger")

	assert.NoError(t, a.Set("a1"))
	assert.Equal(t, 2, computeRuns)
	assert.Equal(t, "a1", mustGet[string](t, pick))

	assert.NoError(t, useA.Set(false))
	assert.Equal(t, 3, computeRuns)
	assert.Equal(t, "b1", mustGet[string](t, pick))

	assert.NoError(t, a.Set("a2"))
	assert.Equal(t, 3, computeRuns, "the branch dropped last pass must not trigger")

	assert.NoError(t, b.Set("b2"))
	assert.Equal(t, 4, computeRuns)
	assert.Equal(t, "b2", mustGet[string](t, pick))
}

// a recomputation whose result is equal to the cache produces no notification
func TestDerivedEqualityGating(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)
	clamped := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		av, err := cellwire.Dep[int](ctx, "a")
		if err != nil {
			return 0, err
		}
		if av > 10 {
			av = 10
		}
		return av, nil
	})

	notified := 0
	clamped.On(func() { notified++ })

	assert.NoError(t, a.Set(30))
	assert.Equal(t, 1, notified)
	assert.Equal(t, 10, mustGet[int](t, clamped))

	assert.NoError(t, a.Set(40))
	assert.Equal(t, 1, notified, "still clamped, no observable change")
}

// while paused, dependency changes are absorbed; resume recomputes once and
// is always observable
func TestDerivedPauseResume(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})

	notified := 0
	d.On(func() { notified++ })
	assert.Equal(t, 1, computeRuns)
	assert.False(t, d.Paused())

	d.Pause()
	assert.True(t, d.Paused())

	assert.NoError(t, a.Set(2))
	assert.NoError(t, a.Set(3))
	assert.Equal(t, 1, computeRuns, "paused nodes ignore dependency changes")
	assert.Equal(t, 1, mustGet[int](t, d), "stale value while paused")
	assert.Equal(t, 0, notified)

	d.Resume()
	assert.False(t, d.Paused())
	assert.Equal(t, 2, computeRuns)
	assert.Equal(t, 3, mustGet[int](t, d))
	assert.Equal(t, 1, notified)

	// resume with unchanged dependencies still notifies
	d.Pause()
	d.Resume()
	assert.Equal(t, 2, notified)
}

// hydration seeds the cache before the first computation and skips afterwards
func TestDerivedHydration(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})

	res, err := d.Hydrate(77)
	assert.NoError(t, err)
	assert.Equal(t, cellwire.HydrateSuccess, res)
	assert.Equal(t, 77, mustGet[int](t, d))
	assert.Equal(t, 0, computeRuns, "hydration bypasses the compute function")

	res, err = d.Hydrate(88)
	assert.NoError(t, err)
	assert.Equal(t, cellwire.HydrateSkipped, res)
	assert.Equal(t, 77, mustGet[int](t, d))
}

func TestDerivedHydrateSkippedAfterFirstCompute(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		return cellwire.Dep[int](ctx, "a")
	})

	assert.Equal(t, 1, mustGet[int](t, d))

	res, err := d.Hydrate(99)
	assert.NoError(t, err)
	assert.Equal(t, cellwire.HydrateSkipped, res)
	assert.Equal(t, 1, mustGet[int](t, d))
}

// a computation failure is cached, returned by identity on every read, and
// replaced by the next successful recomputation
func TestDerivedStickyError(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)
	boom := errors.New("compute boom")

	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		av, err := cellwire.Dep[int](ctx, "a")
		if err != nil {
			return 0, err
		}
		if av < 0 {
			return 0, boom
		}
		return av, nil
	})

	notified := 0
	d.On(func() { notified++ })

	assert.NoError(t, a.Set(-1))
	assert.Equal(t, 1, notified, "valid to errored is an observable change")

	_, err1 := d.Get()
	_, err2 := d.Get()
	assert.Same(t, boom, err1)
	assert.Same(t, boom, err2)

	assert.NoError(t, a.Set(6))
	assert.Equal(t, 2, notified, "errored to valid notifies unconditionally")
	assert.Equal(t, 6, mustGet[int](t, d))
}

// a failing root surfaces its error at every downstream reader unless an
// intermediate node recovers with a fallback
func TestDerivedErrorPropagationThroughChain(t *testing.T) {
	g := cellwire.New()
	rootErr := errors.New("root failed")

	root := cellwire.NewSourceFunc(g, func(*cellwire.Ctx) (int, error) {
		return 0, rootErr
	})
	mid := cellwire.NewDerived(g, cellwire.Deps{"root": root}, func(ctx *cellwire.Ctx) (int, error) {
		return cellwire.Dep[int](ctx, "root")
	})
	top := cellwire.NewDerived(g, cellwire.Deps{"mid": mid}, func(ctx *cellwire.Ctx) (int, error) {
		v, err := cellwire.Dep[int](ctx, "mid")
		return v + 1, err
	})

	_, err := top.Get()
	assert.Same(t, rootErr, err, "the root's error surfaces verbatim at the top")
}

func TestDerivedFallbackRecoversSubChain(t *testing.T) {
	g := cellwire.New()
	rootErr := errors.New("root failed")

	root := cellwire.NewSourceFunc(g, func(*cellwire.Ctx) (int, error) {
		return 0, rootErr
	})
	mid := cellwire.NewDerived(g, cellwire.Deps{"root": root}, func(ctx *cellwire.Ctx) (int, error) {
		return cellwire.Dep[int](ctx, "root")
	}, cellwire.WithFallback[int](func(err error) (int, error) {
		return 100, nil
	}))
	top := cellwire.NewDerived(g, cellwire.Deps{"mid": mid}, func(ctx *cellwire.Ctx) (int, error) {
		v, err := cellwire.Dep[int](ctx, "mid")
		return v + 1, err
	})

	assert.Equal(t, 101, mustGet[int](t, top), "everything above the fallback sees a clean value")
}

// disposing a dependency freezes it and stops all downstream recomputation
func TestDerivedDisposalFreeze(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})
	assert.Equal(t, 1, mustGet[int](t, d))

	a.Dispose()

	var disposedErr *cellwire.DisposedError
	assert.ErrorAs(t, a.Set(2), &disposedErr)
	assert.Equal(t, 1, mustGet[int](t, a), "reads keep the frozen value")
	assert.Equal(t, 1, computeRuns)
	assert.Equal(t, 1, mustGet[int](t, d))
}

// disposing the derived node itself detaches it from its dependencies
func TestDerivedDisposeDetaches(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})
	assert.Equal(t, 1, mustGet[int](t, d))

	cleanedUp := false
	d.OnCleanup(func() { cleanedUp = true })

	d.Dispose()
	assert.True(t, cleanedUp)

	assert.NoError(t, a.Set(2))
	assert.Equal(t, 1, computeRuns, "no recomputation after dispose")
	assert.Equal(t, 1, mustGet[int](t, d), "cached value is frozen")

	var disposedErr *cellwire.DisposedError
	assert.ErrorAs(t, d.Reset(), &disposedErr)

	res, err := d.Hydrate(5)
	assert.Equal(t, cellwire.HydrateSkipped, res)
	assert.ErrorAs(t, err, &disposedErr)
}

// reset forces one recomputation and is always observable
func TestDerivedReset(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})

	notified := 0
	d.On(func() { notified++ })
	assert.Equal(t, 1, computeRuns)

	assert.NoError(t, d.Reset())
	assert.Equal(t, 2, computeRuns)
	assert.Equal(t, 1, notified, "reset notifies even when the value is unchanged")
}

// reading an undeclared dependency fails the computation
func TestDerivedUnknownDependency(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 1)

	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		return cellwire.Dep[int](ctx, "missing")
	}, cellwire.WithName[int]("picky"))

	_, err := d.Get()
	var unknownErr *cellwire.UnknownDependencyError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "picky", unknownErr.Node)
	assert.Equal(t, "missing", unknownErr.Dep)
}

// the typed dependency reader rejects mismatched value types
func TestDepTypeMismatch(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, "text")

	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		return cellwire.Dep[int](ctx, "a")
	})

	_, err := d.Get()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `dependency "a" holds string, not int`)
}

// the Eager option computes at creation time
func TestDerivedEager(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 4)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		av, err := cellwire.Dep[int](ctx, "a")
		return av * 2, err
	}, cellwire.Eager[int]())

	assert.Equal(t, 1, computeRuns)
	assert.Equal(t, 8, mustGet[int](t, d))
	assert.Equal(t, 1, computeRuns)
}

// Peek reads the cache without forcing initialization
func TestDerivedPeek(t *testing.T) {
	g := cellwire.New()
	a := cellwire.NewSource(g, 3)

	computeRuns := 0
	d := cellwire.NewDerived(g, cellwire.Deps{"a": a}, func(ctx *cellwire.Ctx) (int, error) {
		computeRuns++
		return cellwire.Dep[int](ctx, "a")
	})

	v, err := d.Peek()
	assert.NoError(t, err)
	assert.Equal(t, 0, v, "uninitialized peek yields the zero value")
	assert.Equal(t, 0, computeRuns)

	assert.Equal(t, 3, mustGet[int](t, d))
	v, err = d.Peek()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, computeRuns)
}
