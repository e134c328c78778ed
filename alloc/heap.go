package alloc

// Heap allocates blocks on the Go heap. It is the default backend and works
// for any element type.
type Heap[T any] struct{}

// NewHeap returns a heap allocator for T.
func NewHeap[T any]() *Heap[T] {
	return &Heap[T]{}
}

// Allocate returns a zeroed block of n elements. Returns nil if n <= 0.
func (h *Heap[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	return make([]T, n), nil
}

// Deallocate clears the block so anything it references can be collected.
func (h *Heap[T]) Deallocate(block []T) {
	clear(block[:cap(block)])
}

// Reallocate grows or shrinks block to n elements. It stays in place when
// the backing array is large enough.
func (h *Heap[T]) Reallocate(block []T, n int) ([]T, error) {
	if n <= 0 {
		h.Deallocate(block)
		return nil, nil
	}
	if n <= cap(block) {
		return block[:n], nil
	}
	return moveTo[T](h, block, n)
}
