package cellwire

import "reflect"

// Option configures a Source or Derived at creation time.
type Option[T any] func(*options[T])

type options[T any] struct {
	name     string
	equals   func(a, b T) bool
	fallback func(err error) (T, error)
	onChange func(v T)
	onError  func(err error)
	lazy     bool
}

// WithName sets a display name used in error messages and diagnostics.
func WithName[T any](name string) Option[T] {
	return func(o *options[T]) {
		o.name = name
	}
}

// WithEquals replaces the change-detection predicate. The default compares
// with reflect.DeepEqual; a write or recomputation whose result is equal to
// the cached value under this predicate produces no notification.
func WithEquals[T any](equals func(a, b T) bool) Option[T] {
	return func(o *options[T]) {
		o.equals = equals
	}
}

// WithFallback installs a recovery function consulted when the node's
// compute/init function fails. If the fallback succeeds its result is cached
// as the node's value; if it fails too, the node caches a FallbackError
// carrying both causes.
func WithFallback[T any](fallback func(err error) (T, error)) Option[T] {
	return func(o *options[T]) {
		o.fallback = fallback
	}
}

// WithOnChange registers a value-changed callback invoked, through the
// scheduler, before the node's generic change listeners.
func WithOnChange[T any](fn func(v T)) Option[T] {
	return func(o *options[T]) {
		o.onChange = fn
	}
}

// WithOnError registers a best-effort callback invoked synchronously when the
// node's compute/init function fails. It does not replace the cached-error
// read path.
func WithOnError[T any](fn func(err error)) Option[T] {
	return func(o *options[T]) {
		o.onError = fn
	}
}

// Eager makes the node compute at creation time instead of on first read.
func Eager[T any]() Option[T] {
	return func(o *options[T]) {
		o.lazy = false
	}
}

func newOptions[T any](opts []Option[T]) options[T] {
	o := options[T]{
		lazy: true,
		equals: func(a, b T) bool {
			return reflect.DeepEqual(a, b)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
