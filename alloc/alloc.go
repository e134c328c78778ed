package alloc

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when a backend cannot satisfy a request.
var ErrOutOfMemory = errors.New("alloc: out of memory")

// ErrUnsupported is returned by backends that are not available on the
// current platform.
var ErrUnsupported = errors.New("alloc: unsupported on this platform")

// AllocError describes a failed request of Requested elements.
type AllocError struct {
	Requested int
	Err       error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("alloc: request for %d elements failed: %v", e.Requested, e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }

// Allocator hands out fixed-size blocks of T.
//
// Allocate returns a block with len == cap == n. Deallocate releases a block
// previously returned by Allocate or Reallocate; the block must not be used
// afterwards. Reallocate resizes a block, in place when the backend can,
// otherwise by allocating, copying and deallocating the old block.
//
// Implementations must be safe to call from a goroutine other than the one
// that created them, one call at a time.
type Allocator[T any] interface {
	Allocate(n int) ([]T, error)
	Deallocate(block []T)
	Reallocate(block []T, n int) ([]T, error)
}

// Scalar is satisfied by fixed-size, pointer-free numeric types. Backends
// that carve blocks out of raw bytes require it because the garbage collector
// never scans that memory.
type Scalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// moveTo is the allocate+copy+deallocate fallback shared by the backends.
func moveTo[T any](a Allocator[T], block []T, n int) ([]T, error) {
	fresh, err := a.Allocate(n)
	if err != nil {
		return nil, err
	}
	copy(fresh, block)
	if block != nil {
		a.Deallocate(block)
	}
	return fresh, nil
}
