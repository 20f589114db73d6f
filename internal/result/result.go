// Package result provides the two-variant success/failure type every
// pipeline stage output is wrapped in. Stage errors propagate only through
// these combinators; no error crosses a stage boundary any other way.
package result

import "context"

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure wraps an error.
func Failure[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsSuccess reports whether the result holds a value.
func (r Result[T]) IsSuccess() bool { return r.err == nil }

// Err returns the failure error, or nil for a success.
func (r Result[T]) Err() error { return r.err }

// Value returns the success value, or the zero value for a failure.
func (r Result[T]) Value() T { return r.value }

// Unwrap returns the value and error as an ordinary Go pair.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Map applies f to a success value; failures pass through unchanged.
// f must not fail.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	if r.err != nil {
		return Failure[B](r.err)
	}
	return Success(f(r.value))
}

// FlatMap applies f, which may itself fail, to a success value; failures
// pass through unchanged. This is the composition primitive for the pipeline.
func FlatMap[A, B any](r Result[A], f func(A) Result[B]) Result[B] {
	if r.err != nil {
		return Failure[B](r.err)
	}
	return f(r.value)
}

// FlatMapCtx is FlatMap for stage functions that perform external calls and
// therefore take a context.
func FlatMapCtx[A, B any](ctx context.Context, r Result[A], f func(context.Context, A) Result[B]) Result[B] {
	if r.err != nil {
		return Failure[B](r.err)
	}
	return f(ctx, r.value)
}

// Sequence unwraps a slice of results into a result of a slice. It succeeds
// only if every element succeeded, preserving order; otherwise it returns
// the first failure in slice order.
func Sequence[T any](results []Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			return Failure[[]T](r.err)
		}
		values = append(values, r.value)
	}
	return Success(values)
}
