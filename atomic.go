package growvec

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pavanmanishd/growvec/alloc"
	"github.com/pavanmanishd/growvec/internal/telemetry"
)

// snapshot bundles a buffer with its version so data and capacity are
// always published together.
type snapshot[T any] struct {
	data    []T
	version uint64
}

// AtomicVec is a growable array that many goroutines may Push into at once.
// Growth runs on a worker goroutine started ahead of need by a GrowthPolicy;
// pushers keep writing into the current buffer while the worker copies, and
// only block when the buffer is actually full.
//
// Get and Ref are not synchronized with growth: call Wait first, and do not
// read while other goroutines push.
type AtomicVec[T any] struct {
	buf       atomic.Pointer[snapshot[T]]
	length    atomic.Int64
	growPow   atomic.Uint32
	isGrowing atomic.Bool
	failure   atomic.Pointer[error]
	released  atomic.Bool

	// pushMu serializes tail advancement and the final copy of a grow
	pushMu sync.Mutex

	growMu   sync.Mutex
	growDone chan struct{} // guarded by growMu; nil when idle

	seed    int
	policy  GrowthPolicy
	alloc   alloc.Allocator[T]
	logger  *slog.Logger
	metrics telemetry.GrowMetrics
}

// NewAtomic creates an empty AtomicVec. No buffer is allocated until the
// first Push.
func NewAtomic[T any](opts ...Option[T]) (*AtomicVec[T], error) {
	s, err := buildSettings(opts)
	if err != nil {
		return nil, err
	}
	v := &AtomicVec[T]{
		seed:   s.cfg.AtomicSeed,
		policy: s.policy,
		alloc:  s.alloc,
		logger: s.logger,
	}
	v.buf.Store(&snapshot[T]{})
	return v, nil
}

// Push appends x. It is safe for concurrent use. A non-nil error means a
// grow failed and the container is unusable.
func (v *AtomicVec[T]) Push(x T) error {
	v.panicIfReleased()
	for {
		if err := v.Err(); err != nil {
			return err
		}
		if !v.isGrowing.Load() && v.overThreshold() {
			v.startGrow(v.overThreshold)
		}

		v.pushMu.Lock()
		data := v.buf.Load().data
		n := int(v.length.Load())
		if n < len(data) {
			data[n] = x
			v.length.Store(int64(n + 1))
			v.pushMu.Unlock()
			return nil
		}
		v.pushMu.Unlock()

		// full: the one place a pusher blocks
		if done := v.startGrow(v.full); done != nil {
			v.metrics.Blocked()
			<-done
		}
	}
}

// startGrow returns the done channel of the in-flight grow. With none
// running it starts one if need still holds, and returns nil otherwise.
// need is evaluated under growMu, where the published buffer cannot change.
func (v *AtomicVec[T]) startGrow(need func() bool) <-chan struct{} {
	v.growMu.Lock()
	defer v.growMu.Unlock()
	if v.growDone != nil {
		return v.growDone
	}
	if !need() {
		return nil
	}
	done := make(chan struct{})
	v.growDone = done
	v.isGrowing.Store(true)
	go v.grow(done)
	return done
}

func (v *AtomicVec[T]) overThreshold() bool { return v.policy(v.Len(), v.Capacity()) }

func (v *AtomicVec[T]) full() bool { return v.Len() >= v.Capacity() }

// grow runs on the worker goroutine.
func (v *AtomicVec[T]) grow(done chan struct{}) {
	finish := v.metrics.TraceGrow()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
		finish(err)
		if err != nil {
			v.setFailure(err)
		}
		v.growMu.Lock()
		v.growDone = nil
		v.isGrowing.Store(false)
		v.growMu.Unlock()
		close(done)
	}()
	err = v.relocate()
}

// relocate allocates the next buffer, copies the elements over and
// publishes it. The bulk of the copy runs without the push lock: pushers
// only write past the length snapshot taken before it.
func (v *AtomicVec[T]) relocate() error {
	size := v.seed << v.growPow.Load()
	fresh, err := v.alloc.Allocate(size)
	if err != nil {
		return err
	}
	v.growPow.Add(1)
	fresh = fresh[:size]

	old := v.buf.Load()
	if len(old.data) == 0 {
		v.pushMu.Lock()
		v.buf.Store(&snapshot[T]{data: fresh, version: old.version + 1})
		v.pushMu.Unlock()
		v.logger.Debug("buffer published", "capacity", size)
		return nil
	}

	before := int(v.length.Load())
	copy(fresh[:before], old.data[:before])

	v.pushMu.Lock()
	n := int(v.length.Load())
	copy(fresh[before:n], old.data[before:n])
	v.buf.Store(&snapshot[T]{data: fresh, version: old.version + 1})
	v.pushMu.Unlock()

	// no pusher can still hold old.data: they load the buffer under pushMu
	v.alloc.Deallocate(old.data)
	v.metrics.Copied(n)
	v.metrics.Freed()
	v.logger.Debug("buffer grown",
		"capacity", size,
		"len", n,
		"copied_unlocked", before)
	return nil
}

func (v *AtomicVec[T]) setFailure(err error) {
	wrapped := brokenError(err)
	v.failure.CompareAndSwap(nil, &wrapped)
	v.logger.Error("atomic grow failed", "error", err)
}

// Err returns the fatal grow error, if any.
func (v *AtomicVec[T]) Err() error {
	if p := v.failure.Load(); p != nil {
		return *p
	}
	return nil
}

// Len returns the number of pushed elements.
func (v *AtomicVec[T]) Len() int { return int(v.length.Load()) }

// Capacity returns the capacity of the published buffer.
func (v *AtomicVec[T]) Capacity() int { return len(v.buf.Load().data) }

// Growing reports whether a grow is in flight.
func (v *AtomicVec[T]) Growing() bool { return v.isGrowing.Load() }

// Get returns element i. i must be in [0, Len()).
func (v *AtomicVec[T]) Get(i int) T {
	return *v.Ref(i)
}

// Ref returns a pointer to element i, valid until the next grow.
func (v *AtomicVec[T]) Ref(i int) *T {
	v.panicIfReleased()
	n := v.Len()
	if uint(i) >= uint(n) {
		panic(indexError(i, n))
	}
	return &v.buf.Load().data[i]
}

// Wait blocks until no grow is in flight and returns the fatal grow error,
// if any.
func (v *AtomicVec[T]) Wait() error {
	v.growMu.Lock()
	done := v.growDone
	v.growMu.Unlock()
	if done != nil {
		<-done
	}
	return v.Err()
}

// Release waits for an in-flight grow and frees the buffer. The container
// is unusable afterwards; calling Release again is a no-op.
func (v *AtomicVec[T]) Release() error {
	if v.released.Load() {
		return nil
	}
	err := v.Wait()
	v.pushMu.Lock()
	defer v.pushMu.Unlock()
	if !v.released.CompareAndSwap(false, true) {
		return nil
	}
	if old := v.buf.Swap(&snapshot[T]{}); len(old.data) > 0 {
		v.alloc.Deallocate(old.data)
		v.metrics.Freed()
	}
	v.length.Store(0)
	return err
}

func (v *AtomicVec[T]) panicIfReleased() {
	if v.released.Load() {
		panic("growvec: use after Release()")
	}
}
