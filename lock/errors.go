package lock

import "errors"

var (
	// ErrLockHeld is returned when another owner holds an unexpired lease.
	ErrLockHeld = errors.New("dyalchemy: lock is held")

	// ErrLockLost is returned when a lease was taken over or expired before it
	// could be renewed or released.
	ErrLockLost = errors.New("dyalchemy: lock lost")

	// ErrReleased is returned when releasing a lock twice.
	ErrReleased = errors.New("dyalchemy: lock already released")
)
