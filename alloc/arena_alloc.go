package alloc

import "unsafe"

// ArenaAllocator serves typed blocks out of an Arena.
//
// Deallocate only records the freed bytes; the memory is reclaimed when the
// arena is Reset or Released. Reallocate extends the most recent block in
// place when the current chunk has room, which makes it a good fit for a
// single growing buffer.
type ArenaAllocator[T Scalar] struct {
	a *Arena
}

// NewArenaAllocator returns an allocator backed by a fresh arena.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewArenaAllocator[T Scalar](chunkSize int) *ArenaAllocator[T] {
	return &ArenaAllocator[T]{a: NewArena(chunkSize)}
}

// OnArena returns an allocator that shares an existing arena.
func OnArena[T Scalar](a *Arena) *ArenaAllocator[T] {
	return &ArenaAllocator[T]{a: a}
}

// Arena returns the backing arena.
func (aa *ArenaAllocator[T]) Arena() *Arena { return aa.a }

// Allocate carves a zeroed block of n elements. Returns nil if n <= 0.
func (aa *ArenaAllocator[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	size, ok := blockBytes[T](n)
	if !ok {
		return nil, &AllocError{Requested: n, Err: ErrOutOfMemory}
	}

	aa.a.mu.Lock()
	defer aa.a.mu.Unlock()
	b := aa.a.carve(size)
	// a Reset may hand out memory that still holds old data
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}

// Deallocate accounts the block as freed.
func (aa *ArenaAllocator[T]) Deallocate(block []T) {
	if cap(block) == 0 {
		return
	}
	var zero T
	aa.a.mu.Lock()
	defer aa.a.mu.Unlock()
	aa.a.panicIfReleased()
	aa.a.freed += cap(block) * int(unsafe.Sizeof(zero))
}

// Reallocate resizes block to n elements, extending in place when block is
// the latest carve of the current chunk.
func (aa *ArenaAllocator[T]) Reallocate(block []T, n int) ([]T, error) {
	if n <= 0 {
		aa.Deallocate(block)
		return nil, nil
	}
	if n <= cap(block) {
		return block[:n], nil
	}
	if cap(block) > 0 {
		size, ok := blockBytes[T](n)
		if !ok {
			return nil, &AllocError{Requested: n, Err: ErrOutOfMemory}
		}
		aa.a.mu.Lock()
		aa.a.panicIfReleased()
		b, ok := aa.a.extend(unsafe.Pointer(unsafe.SliceData(block)), size)
		aa.a.mu.Unlock()
		if ok {
			grown := unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
			clear(grown[len(block):])
			return grown, nil
		}
	}
	return moveTo[T](aa, block, n)
}

// blockBytes returns n*sizeof(T), reporting false on overflow.
func blockBytes[T any](n int) (uintptr, bool) {
	var zero T
	elem := unsafe.Sizeof(zero)
	if elem == 0 {
		return 0, false
	}
	const maxInt = int(^uint(0) >> 1)
	if n > maxInt/int(elem) {
		return 0, false
	}
	return uintptr(n) * elem, true
}
