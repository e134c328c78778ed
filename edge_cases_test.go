package growvec_test

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/pavanmanishd/growvec"
	"github.com/pavanmanishd/growvec/alloc"
)

// TestEdgeCases covers boundary inputs for both containers
func TestEdgeCases(t *testing.T) {
	t.Run("SeedCapacityOne", func(t *testing.T) {
		r, err := growvec.NewRing[int](1)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Release()

		for i := 0; i < 1000; i++ {
			if err := r.Push(i); err != nil {
				t.Fatal(err)
			}
		}
		if r.Capacity() != 1024 {
			t.Errorf("capacity after 1000 pushes from seed 1: got %d, want 1024", r.Capacity())
		}
		for i := 0; i < 1000; i++ {
			if r.Get(i) != i {
				t.Errorf("Get(%d) = %d", i, r.Get(i))
			}
		}
	})

	t.Run("FillExactlyToRotation", func(t *testing.T) {
		r, err := growvec.NewRing[int](8)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Release()

		for i := 0; i < 7; i++ {
			_ = r.Push(i)
		}
		if r.Capacity() != 8 {
			t.Errorf("rotated early: capacity %d", r.Capacity())
		}
		_ = r.Push(7)
		if r.Capacity() != 16 {
			t.Errorf("push that fills the segment must rotate: capacity %d", r.Capacity())
		}
		if r.Len() != 8 {
			t.Errorf("Len after rotation: got %d, want 8", r.Len())
		}
	})

	t.Run("WideDepth", func(t *testing.T) {
		const depth = 8
		r, err := growvec.NewRing[int](1, growvec.WithDepth[int](depth), growvec.WithOffload[int]())
		if err != nil {
			t.Fatal(err)
		}
		defer r.Release()

		// the frontier stays depth-1 doublings ahead of the active segment
		for i := 0; i < 1000; i++ {
			if err := r.Push(i); err != nil {
				t.Fatal(err)
			}
			if got, want := r.FrontierCapacity(), r.Capacity()<<(depth-1); got != want {
				t.Fatalf("push %d: frontier capacity %d, want %d", i, got, want)
			}
		}
		if r.FrontierCapacity() != 1<<17 {
			t.Errorf("frontier capacity after 10 rotations: got %d, want %d", r.FrontierCapacity(), 1<<17)
		}
		if r.Get(999) != 999 {
			t.Errorf("last element: got %d", r.Get(999))
		}
	})

	t.Run("MaxDepth", func(t *testing.T) {
		r, err := growvec.NewRing[int](1, growvec.WithDepth[int](growvec.MaxDepth))
		if err != nil {
			t.Fatal(err)
		}
		defer r.Release()

		if r.FrontierCapacity() != 1<<15 {
			t.Errorf("frontier capacity: got %d, want %d", r.FrontierCapacity(), 1<<15)
		}
		if _, err := growvec.NewRing[int](1, growvec.WithDepth[int](2*growvec.MaxDepth)); err == nil {
			t.Error("depth above MaxDepth accepted")
		}
	})

	t.Run("SyncWithoutGrowth", func(t *testing.T) {
		r, err := growvec.NewRing[int](4, growvec.WithOffload[int]())
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Sync(); err != nil {
			t.Errorf("Sync on fresh ring: %v", err)
		}
		if err := r.Release(); err != nil {
			t.Errorf("Release on fresh ring: %v", err)
		}
	})

	t.Run("AtomicSeedOne", func(t *testing.T) {
		v, err := growvec.NewAtomic[int](growvec.WithSeed[int](1))
		if err != nil {
			t.Fatal(err)
		}
		defer v.Release()

		for i := 0; i < 1000; i++ {
			if err := v.Push(i); err != nil {
				t.Fatal(err)
			}
		}
		_ = v.Wait()
		if v.Capacity() < 1000 {
			t.Errorf("capacity %d below length 1000", v.Capacity())
		}
	})
}

// TestMemoryCorruption checks that refresh copies never overlap pushes
func TestMemoryCorruption(t *testing.T) {
	type record struct {
		ID      int
		Payload [7]int64
	}

	r, err := growvec.NewRing[record](2, growvec.WithOffload[record]())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	const n = 50_000
	for i := 0; i < n; i++ {
		rec := record{ID: i}
		for j := range rec.Payload {
			rec.Payload[j] = int64(i)
		}
		if err := r.Push(rec); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < n; i++ {
		rec := r.Get(i)
		if rec.ID != i {
			t.Fatalf("Memory corruption at %d: got ID %d", i, rec.ID)
		}
		for j, p := range rec.Payload {
			if p != int64(i) {
				t.Fatalf("Memory corruption at %d[%d]: got %d", i, j, p)
			}
		}
	}
}

// TestAllocatorBackends runs the ring over every allocator
func TestAllocatorBackends(t *testing.T) {
	backends := []struct {
		name string
		new  func() alloc.Allocator[int64]
	}{
		{"Heap", func() alloc.Allocator[int64] { return alloc.NewHeap[int64]() }},
		{"Arena", func() alloc.Allocator[int64] { return alloc.NewArenaAllocator[int64](4096) }},
		{"Mmap", func() alloc.Allocator[int64] { return alloc.NewMmap[int64]() }},
		{"Tracking", func() alloc.Allocator[int64] { return alloc.NewTracking[int64](nil) }},
		{"Budget", func() alloc.Allocator[int64] { return alloc.NewBudget[int64](nil, 1<<20) }},
	}

	for _, be := range backends {
		for _, offload := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/offload=%v", be.name, offload), func(t *testing.T) {
				a := be.new()
				probe, err := a.Allocate(1)
				if err != nil {
					t.Skipf("backend unavailable: %v", err)
				}
				a.Deallocate(probe)

				opts := []growvec.Option[int64]{growvec.WithAllocator(a)}
				if offload {
					opts = append(opts, growvec.WithOffload[int64]())
				}
				r, err := growvec.NewRing[int64](16, opts...)
				if err != nil {
					t.Fatal(err)
				}
				for i := 0; i < 10_000; i++ {
					if err := r.Push(int64(i)); err != nil {
						t.Fatal(err)
					}
				}
				for i := 0; i < 10_000; i++ {
					if got := r.Get(i); got != int64(i) {
						t.Fatalf("Get(%d) = %d", i, got)
					}
				}
				if err := r.Release(); err != nil {
					t.Error(err)
				}
			})
		}
	}
}

// TestMemoryLeaks checks that released rings do not pin their blocks
func TestMemoryLeaks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping memory leak test in short mode")
	}

	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	for i := 0; i < 200; i++ {
		r, err := growvec.NewRing[int64](64, growvec.WithOffload[int64]())
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 10_000; j++ {
			_ = r.Push(int64(j))
		}
		_ = r.Release()
	}

	runtime.GC()
	runtime.ReadMemStats(&m2)

	if m2.HeapAlloc > m1.HeapAlloc+(8<<20) {
		t.Errorf("Potential memory leak: before=%d, after=%d", m1.HeapAlloc, m2.HeapAlloc)
	}
	if g := runtime.NumGoroutine(); g > 50 {
		t.Errorf("grow workers not stopped: %d goroutines", g)
	}
}

// TestConcurrencyStress pushes from many goroutines while others sample metrics
func TestConcurrencyStress(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	v, err := growvec.NewAtomic[int64](growvec.WithSeed[int64](2))
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	const (
		numWorkers      = 20
		numOpsPerWorker = 5000
	)

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			lastCap := 0
			for j := 0; j < numOpsPerWorker; j++ {
				if err := v.Push(int64(workerID*numOpsPerWorker + j)); err != nil {
					errs <- fmt.Errorf("worker %d: %w", workerID, err)
					return
				}
				if j%500 == 0 {
					c := v.Metrics().Capacity
					if c < lastCap {
						errs <- fmt.Errorf("worker %d: capacity shrank from %d to %d", workerID, lastCap, c)
						return
					}
					lastCap = c
					runtime.Gosched()
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if err := v.Wait(); err != nil {
		t.Fatal(err)
	}
	if v.Len() != numWorkers*numOpsPerWorker {
		t.Fatalf("Len: got %d, want %d", v.Len(), numWorkers*numOpsPerWorker)
	}
	seen := make(map[int64]bool, v.Len())
	for i := 0; i < v.Len(); i++ {
		x := v.Get(i)
		if seen[x] {
			t.Fatalf("value %d stored twice", x)
		}
		seen[x] = true
	}
}
