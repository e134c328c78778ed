package alloc

import (
	"fmt"
	"sync"
	"unsafe"
)

// Tracking wraps an allocator and records every live block. Deallocating a
// block it does not know about, or one it has already seen freed, panics.
// With a poison value set, freed blocks are overwritten and quarantined: they
// are never handed back to the wrapped allocator, so a reader of freed memory
// observes the poison instead of recycled data.
type Tracking[T any] struct {
	mu     sync.Mutex
	next   Allocator[T]
	live   map[unsafe.Pointer]int
	poison *T

	allocs int
	frees  int
}

// NewTracking wraps next. A nil next uses the heap.
func NewTracking[T any](next Allocator[T]) *Tracking[T] {
	if next == nil {
		next = NewHeap[T]()
	}
	return &Tracking[T]{next: next, live: make(map[unsafe.Pointer]int)}
}

// Poison sets the value written into freed blocks.
func (t *Tracking[T]) Poison(v T) *Tracking[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.poison = &v
	return t
}

func (t *Tracking[T]) Allocate(n int) ([]T, error) {
	block, err := t.next.Allocate(n)
	if err != nil || cap(block) == 0 {
		return block, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[unsafe.Pointer(unsafe.SliceData(block))] = cap(block)
	t.allocs++
	return block, nil
}

func (t *Tracking[T]) Deallocate(block []T) {
	if cap(block) == 0 {
		return
	}
	if quarantined := t.forget(block); !quarantined {
		t.next.Deallocate(block)
	}
}

// forget drops block from the live set and poisons it when a poison value is
// set, reporting whether the block is kept in quarantine.
func (t *Tracking[T]) forget(block []T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	base := unsafe.Pointer(unsafe.SliceData(block))
	if _, ok := t.live[base]; !ok {
		panic(fmt.Sprintf("alloc: double free or foreign block at %p", base))
	}
	delete(t.live, base)
	t.frees++
	if t.poison != nil {
		full := block[:cap(block)]
		for i := range full {
			full[i] = *t.poison
		}
		return true
	}
	return false
}

func (t *Tracking[T]) Reallocate(block []T, n int) ([]T, error) {
	if cap(block) == 0 {
		return t.Allocate(n)
	}
	t.mu.Lock()
	base := unsafe.Pointer(unsafe.SliceData(block))
	_, ok := t.live[base]
	t.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("alloc: realloc of unknown block at %p", base))
	}

	grown, err := t.next.Reallocate(block, n)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	newBase := unsafe.Pointer(unsafe.SliceData(grown))
	if newBase != base || cap(grown) == 0 {
		// moved: the backend already released the old block
		delete(t.live, base)
		t.frees++
	}
	if cap(grown) > 0 {
		if newBase != base {
			t.allocs++
		}
		t.live[newBase] = cap(grown)
	}
	return grown, nil
}

// TrackingStats is a snapshot of a Tracking allocator.
type TrackingStats struct {
	Allocs       int // Blocks handed out
	Frees        int // Blocks returned
	Live         int // Blocks still outstanding
	LiveElements int // Sum of capacities of outstanding blocks
}

// Stats returns the current counters.
func (t *Tracking[T]) Stats() TrackingStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := TrackingStats{Allocs: t.allocs, Frees: t.frees, Live: len(t.live)}
	for _, n := range t.live {
		s.LiveElements += n
	}
	return s
}
