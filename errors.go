package cellwire

import "fmt"

// DisposedError is returned by mutation attempts on a node whose Dispose has
// already run. Reads are unaffected: a disposed node keeps returning its last
// cached value or error.
type DisposedError struct {
	// Node is the display name of the disposed node, if it has one.
	Node string
}

func (e *DisposedError) Error() string {
	if e.Node == "" {
		return "cellwire: node is disposed"
	}
	return fmt.Sprintf("cellwire: node %q is disposed", e.Node)
}

// FallbackError is cached when a node's compute function failed and the
// configured fallback failed as well. It carries both causes.
type FallbackError struct {
	// Node is the display name of the failing node, if it has one.
	Node string
	// Cause is the error raised by the compute/init function.
	Cause error
	// FallbackCause is the error raised by the fallback itself.
	FallbackCause error
}

func (e *FallbackError) Error() string {
	name := e.Node
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("cellwire: node %s compute failed: %v (fallback also failed: %v)", name, e.Cause, e.FallbackCause)
}

func (e *FallbackError) Unwrap() []error {
	return []error{e.Cause, e.FallbackCause}
}

// AsyncResultError is returned by RunBatch when the batch body produced a
// channel-kind result. Batch bodies must complete synchronously: deferring
// notifications past an asynchronous boundary would make flush timing
// ill-defined, so handing back a pending result is a programmer error.
type AsyncResultError struct {
	// Type is the Go type of the offending result.
	Type string
}

func (e *AsyncResultError) Error() string {
	return fmt.Sprintf("cellwire: batch body returned asynchronous result %s, batches must be synchronous", e.Type)
}

// UnknownDependencyError is returned when a compute function reads a
// dependency name that was never declared for its node.
type UnknownDependencyError struct {
	// Node is the display name of the reading node, if it has one.
	Node string
	// Dep is the undeclared dependency name.
	Dep string
}

func (e *UnknownDependencyError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("cellwire: unknown dependency %q", e.Dep)
	}
	return fmt.Sprintf("cellwire: node %q has no dependency %q", e.Node, e.Dep)
}
