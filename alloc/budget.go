package alloc

import (
	"fmt"
	"sync"
)

// Budget caps the number of live elements an allocator may hand out.
// Requests beyond the limit fail with ErrOutOfMemory.
type Budget[T any] struct {
	mu    sync.Mutex
	next  Allocator[T]
	limit int
	used  int
}

// NewBudget wraps next with a limit of maxElements live elements.
// A nil next uses the heap.
func NewBudget[T any](next Allocator[T], maxElements int) *Budget[T] {
	if next == nil {
		next = NewHeap[T]()
	}
	return &Budget[T]{next: next, limit: maxElements}
}

func (b *Budget[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	if err := b.reserve(n); err != nil {
		return nil, err
	}
	block, err := b.next.Allocate(n)
	if err != nil {
		b.release(n)
		return nil, err
	}
	return block, nil
}

func (b *Budget[T]) Deallocate(block []T) {
	if cap(block) == 0 {
		return
	}
	n := cap(block)
	b.next.Deallocate(block)
	b.release(n)
}

// Reallocate always moves so the old block is accounted for exactly once.
func (b *Budget[T]) Reallocate(block []T, n int) ([]T, error) {
	if n <= cap(block) {
		return block[:n], nil
	}
	return moveTo[T](b, block, n)
}

// Used returns the number of live elements.
func (b *Budget[T]) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

func (b *Budget[T]) reserve(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used+n > b.limit {
		return &AllocError{
			Requested: n,
			Err:       fmt.Errorf("%w: budget %d, in use %d", ErrOutOfMemory, b.limit, b.used),
		}
	}
	b.used += n
	return nil
}

func (b *Budget[T]) release(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used -= n
}
