package suggest

import "errors"

var (
	// ErrInvalidInput is an empty or non-alphabetic prefix. Complete turns
	// it into an empty result; it never reaches callers as a failure.
	ErrInvalidInput = errors.New("invalid prefix")

	// ErrAdapterUnavailable means the generator could not produce
	// continuations. Complete degrades to dictionary-only results.
	ErrAdapterUnavailable = errors.New("generator unavailable")

	// ErrAdapterTimeout means the generator did not answer in time.
	// Handled exactly like ErrAdapterUnavailable.
	ErrAdapterTimeout = errors.New("generator timed out")
)
