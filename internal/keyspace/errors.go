package keyspace

import "errors"

var (
	// ErrIndexSpaceExhausted is returned when no integer greater than the
	// current maximum is left in a scope.
	ErrIndexSpaceExhausted = errors.New("keyspace: index space exhausted")
	// ErrNoGapAvailable is returned when the requested neighbours are
	// numerically adjacent and cannot be bisected.
	ErrNoGapAvailable = errors.New("keyspace: no gap available")
	// ErrInvalidLayout is returned for layouts that cannot hold a profile and
	// its first action without collision.
	ErrInvalidLayout = errors.New("keyspace: invalid layout")
	// ErrInvalidIndex is returned for indices or offsets outside their scope.
	ErrInvalidIndex = errors.New("keyspace: invalid index")
)
