package growvec

import (
	"fmt"

	"github.com/pavanmanishd/growvec/alloc"
)

// Segment is one fixed-capacity block plus its fill cursor. The cursor is
// always Len(): the index of the next free slot.
type Segment[T any] struct {
	data   []T // len(data) == capacity
	length int
	freed  bool
}

// NewSegment allocates an empty segment of the given capacity.
func NewSegment[T any](a alloc.Allocator[T], capacity int) (*Segment[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("growvec: segment capacity must be positive, got %d", capacity)
	}
	data, err := a.Allocate(capacity)
	if err != nil {
		return nil, err
	}
	return &Segment[T]{data: data[:capacity]}, nil
}

// Len returns the number of elements considered filled.
func (s *Segment[T]) Len() int { return s.length }

// Cap returns the capacity of the segment.
func (s *Segment[T]) Cap() int { return len(s.data) }

// Full reports whether the cursor reached the end of the block.
func (s *Segment[T]) Full() bool { return s.length == len(s.data) }

// Freed reports whether Free has been called.
func (s *Segment[T]) Freed() bool { return s.freed }

// Append writes v at the cursor. The caller guarantees Len() < Cap().
func (s *Segment[T]) Append(v T) {
	s.data[s.length] = v
	s.length++
}

// dropLast undoes the most recent Append.
func (s *Segment[T]) dropLast() {
	s.length--
	var zero T
	s.data[s.length] = zero
}

// At returns a pointer to element i. Indices at or past Len panic.
func (s *Segment[T]) At(i int) *T {
	if uint(i) >= uint(s.length) {
		panic(indexError(i, s.length))
	}
	return &s.data[i]
}

// GrowFromLast allocates a segment of twice the capacity whose first Cap()
// slots are already counted as filled. Nothing is copied: the placeholder
// region is populated later by CopyFrom.
func (s *Segment[T]) GrowFromLast(a alloc.Allocator[T]) (*Segment[T], error) {
	next, err := NewSegment(a, 2*len(s.data))
	if err != nil {
		return nil, err
	}
	next.length = len(s.data)
	return next, nil
}

// CopyFrom copies the src.Len() leading elements of src into the front of s.
// It only touches s.data[:src.Len()], so it may run while another goroutine
// appends past that region.
func (s *Segment[T]) CopyFrom(src *Segment[T]) int {
	return copy(s.data[:src.length], src.data[:src.length])
}

// Free releases the block. A second Free panics.
func (s *Segment[T]) Free(a alloc.Allocator[T]) {
	if s.freed {
		panic("growvec: segment double free")
	}
	a.Deallocate(s.data)
	s.data = nil
	s.freed = true
}
