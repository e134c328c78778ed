package growvec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDepth is returned for a ring depth that is not a power of two
	// in [2, MaxDepth].
	ErrInvalidDepth = errors.New("growvec: ring depth must be a power of two in [2, 16]")
	// ErrInvalidLoadFactor is returned for a load factor outside (0, 1].
	ErrInvalidLoadFactor = errors.New("growvec: load factor must be in (0, 1]")
	// ErrInvalidSeed is returned for a negative seed capacity.
	ErrInvalidSeed = errors.New("growvec: seed capacity must not be negative")
	// ErrGrowPanic is returned when a grow worker panicked mid-grow. The
	// container state cannot be trusted afterwards.
	ErrGrowPanic = errors.New("growvec: grow worker panicked")
)

// brokenError marks a container as unusable after a fatal grow failure.
func brokenError(err error) error {
	return fmt.Errorf("growvec: container unusable after failed grow: %w", err)
}

// recoveredError converts a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", ErrGrowPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrGrowPanic, r)
}

func indexError(i, n int) string {
	return fmt.Sprintf("growvec: index %d out of range [0:%d]", i, n)
}
