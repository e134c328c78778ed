//go:build linux || darwin

package alloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mmap maps every block as its own anonymous private mapping. Deallocate
// unmaps the block, so a stray access after free faults instead of reading
// stale data.
type Mmap[T Scalar] struct{}

// NewMmap returns an mmap-backed allocator for T.
func NewMmap[T Scalar]() *Mmap[T] {
	return &Mmap[T]{}
}

// Allocate maps a zeroed block of n elements. Returns nil if n <= 0.
func (m *Mmap[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	size, ok := blockBytes[T](n)
	if !ok {
		return nil, &AllocError{Requested: n, Err: ErrOutOfMemory}
	}
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, &AllocError{Requested: n, Err: fmt.Errorf("%w: mmap: %v", ErrOutOfMemory, err)}
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}

// Deallocate unmaps the block. The block must start at the address returned
// by Allocate and keep its original capacity.
func (m *Mmap[T]) Deallocate(block []T) {
	if cap(block) == 0 {
		return
	}
	size, _ := blockBytes[T](cap(block))
	b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(block))), int(size))
	if err := unix.Munmap(b); err != nil {
		panic(fmt.Sprintf("alloc: munmap: %v", err))
	}
}

// Reallocate always moves: a fresh mapping is made and the old one unmapped.
func (m *Mmap[T]) Reallocate(block []T, n int) ([]T, error) {
	if n <= 0 {
		m.Deallocate(block)
		return nil, nil
	}
	if n <= cap(block) {
		return block[:n], nil
	}
	return moveTo[T](m, block, n)
}
