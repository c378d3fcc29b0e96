package optimize

import "errors"

// Status sentinels. Every entry point wraps one of these so callers can
// dispatch with errors.Is.
var (
	// ErrInvalidArgs reports a violated parameter constraint; nothing was
	// computed.
	ErrInvalidArgs = errors.New("optimize: invalid arguments")
	// ErrOutOfMemory is the out-of-memory status. No entry point returns
	// it: a failed allocation in Go aborts the program.
	ErrOutOfMemory = errors.New("optimize: out of memory")
	// ErrNotInitialized reports a call that depends on a prerequisite
	// stage the caller skipped, such as overdraw ordering without a
	// clustering.
	ErrNotInitialized = errors.New("optimize: prerequisite stage missing")
	// ErrInternal reports a violated pipeline invariant. It indicates a
	// bug in the library or corrupted intermediate state, not bad input.
	ErrInternal = errors.New("optimize: internal error")
	// ErrCancelled reports that the caller's cancellation predicate
	// tripped; outputs are unspecified.
	ErrCancelled = errors.New("optimize: cancelled")
)
