//go:build !linux && !darwin

package alloc

// Mmap is unavailable on this platform; Allocate always fails.
type Mmap[T Scalar] struct{}

// NewMmap returns an allocator whose Allocate reports ErrUnsupported.
func NewMmap[T Scalar]() *Mmap[T] {
	return &Mmap[T]{}
}

func (m *Mmap[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	return nil, &AllocError{Requested: n, Err: ErrUnsupported}
}

func (m *Mmap[T]) Deallocate(block []T) {}

func (m *Mmap[T]) Reallocate(block []T, n int) ([]T, error) {
	if n <= cap(block) {
		return block[:n], nil
	}
	return nil, &AllocError{Requested: n, Err: ErrUnsupported}
}
