// Package growvec implements contiguous growable arrays whose Push never
// stops the world to copy every element when capacity runs out.
//
// # Overview
//
// A plain doubling vector pays an O(n) copy on the push that fills it. The
// containers in this package move that work off the critical push:
//
//   - Ring keeps a small ring of segments with doubling capacities. Exactly
//     one segment, the active one, holds every element; on rotation only the
//     previous, smaller segment is copied into the new active one, either
//     inline or on a background worker.
//   - AtomicVec keeps one buffer behind an atomically swapped snapshot and
//     starts a worker goroutine to reallocate and copy once a load factor is
//     crossed, while pushers keep writing into the reserved headroom.
//
// # Basic Usage
//
//	r, err := growvec.NewRing[int](0) // default seed capacity
//	if err != nil {
//		return err
//	}
//	defer r.Release()
//
//	for i := 0; i < 1000; i++ {
//		if err := r.Push(i); err != nil {
//			return err
//		}
//	}
//	v := r.Get(42)
//
// # Background Growth
//
// WithOffload moves the ring refresh copy onto a worker goroutine. At most
// one grow is outstanding; the next rotation waits for it, so the producer
// never rotates into a segment that is still being refreshed.
//
//	r, _ := growvec.NewRing[int](64, growvec.WithOffload[int]())
//
// AtomicVec supports many concurrent pushers:
//
//	v, _ := growvec.NewAtomic[int]()
//	defer v.Release()
//
//	var wg sync.WaitGroup
//	for w := 0; w < 4; w++ {
//		wg.Add(1)
//		go func() {
//			defer wg.Done()
//			_ = v.Push(w)
//		}()
//	}
//	wg.Wait()
//	_ = v.Wait()
//
// # Allocators
//
// Blocks come from an alloc.Allocator, the Go heap by default. Use
// WithAllocator to plug in an arena, mmap-backed or instrumented allocator.
//
// # Important Notes
//
//   - Reads (Get, Ref, Set) are single-caller operations and are not
//     synchronized with concurrent pushes.
//   - Allocation failure is fatal: the container stays unusable and every
//     later Push returns the error.
//   - Index out of range, double free and use after Release are programming
//     errors and panic.
package growvec
