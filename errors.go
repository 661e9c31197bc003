package osc

import "errors"

var (
	// ErrCapacity is reported when an append would overflow one of the
	// fixed buffers, or exceed the maximum tag count. The builder is left
	// exactly as it was before the failing call.
	ErrCapacity = errors.New("osc: capacity exceeded")
	// ErrNoAddress is reported by Build when SetAddress was never called.
	ErrNoAddress = errors.New("osc: message has no address")
	// ErrMalformed is reported by Parse for truncated or invalid wire
	// data. A failed View must not be read.
	ErrMalformed = errors.New("osc: malformed packet")
	// ErrTooDeep is reported by Dispatch when bundle nesting exceeds
	// MaxBundleDepth.
	ErrTooDeep = errors.New("osc: bundle nesting too deep")
)
