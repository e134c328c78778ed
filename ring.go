package growvec

import (
	"log/slog"
	"sync/atomic"

	"github.com/pavanmanishd/growvec/alloc"
	"github.com/pavanmanishd/growvec/internal/telemetry"
)

type slotState uint8

const (
	slotLive slotState = iota
	slotRefreshing
)

// slot is one ring position. A refreshing slot is owned by the grow-drain
// and must not be read.
type slot[T any] struct {
	seg   *Segment[T]
	state slotState
}

// Ring is a growable array built from a ring of segments with doubling
// capacities. The active segment always holds every pushed element at its
// logical index; the others are either stale history owed a refresh copy or
// pre-grown segments waiting to become active.
//
// Push, Get and the other methods must be called from one goroutine. With
// WithOffload the refresh copies run on a background worker that only ever
// writes the placeholder region of the active segment.
type Ring[T any] struct {
	slots    []slot[T]
	mask     int
	active   int
	frontier int
	debt     atomic.Int32

	alloc   alloc.Allocator[T]
	sched   growScheduler
	logger  *slog.Logger
	metrics telemetry.GrowMetrics
	err     error
}

// NewRing creates a ring whose first segment holds capacityHint elements.
// If capacityHint <= 0, the configured seed capacity is used.
//
// With WithOffload the ring owns a worker goroutine that only Release stops;
// a ring that is never released leaks it.
func NewRing[T any](capacityHint int, opts ...Option[T]) (*Ring[T], error) {
	s, err := buildSettings(opts)
	if err != nil {
		return nil, err
	}
	if capacityHint <= 0 {
		capacityHint = s.cfg.SeedCapacity
	}

	depth := s.cfg.Depth
	r := &Ring[T]{
		slots:    make([]slot[T], depth),
		mask:     depth - 1,
		frontier: depth - 1,
		alloc:    s.alloc,
		logger:   s.logger,
	}

	first, err := NewSegment(r.alloc, capacityHint)
	if err != nil {
		return nil, err
	}
	r.slots[0] = slot[T]{seg: first}
	for i := 1; i < depth; i++ {
		seg, err := r.slots[i-1].seg.GrowFromLast(r.alloc)
		if err != nil {
			r.freeAll()
			return nil, err
		}
		r.slots[i] = slot[T]{seg: seg}
	}

	if s.cfg.Offload {
		r.sched = newOffloadScheduler(r.drain)
	} else {
		r.sched = inlineScheduler{drain: r.drain}
	}

	r.logger.Debug("ring created",
		"depth", depth,
		"seed_capacity", capacityHint,
		"offload", s.cfg.Offload)
	return r, nil
}

// Push appends v. A non-nil error means growth failed; the ring is unusable
// from then on and every later Push returns the same error.
func (r *Ring[T]) Push(v T) error {
	r.panicIfReleased()
	if r.err != nil {
		return r.err
	}
	seg := r.slots[r.active].seg
	seg.Append(v)
	if seg.Full() {
		if err := r.rotate(); err != nil {
			// a failed push leaves Len unchanged
			seg.dropLast()
			return err
		}
	}
	return nil
}

// rotate moves to the next pre-grown segment and schedules the copy that
// brings it up to date. On failure the ring is left on the segment it
// rotated away from.
func (r *Ring[T]) rotate() error {
	// the segment we rotate away from is the copy source; it must be complete
	if err := r.sched.settle(); err != nil {
		return r.fail(err)
	}

	prev := r.active
	r.debt.Add(1)
	r.active = (r.active + 1) & r.mask

	if err := r.sched.schedule(growRequest{op: opGrow, slot: r.active}); err != nil {
		// only the inline drain fails here, and refresh allocates before it
		// touches any slot
		r.debt.Add(-1)
		r.active = prev
		return r.fail(err)
	}

	r.metrics.Rotated()
	r.logger.Debug("ring rotated",
		"active", r.active,
		"capacity", r.slots[r.active].seg.Cap(),
		"len", r.slots[r.active].seg.Len())
	return nil
}

// drain pays off copy-debt toward the given active slot, oldest stale slot
// first. Each step copies one older, smaller segment, never the whole ring.
func (r *Ring[T]) drain(active int) error {
	for {
		debt := int(r.debt.Load())
		if debt == 0 {
			return nil
		}
		if err := r.refresh(active, debt); err != nil {
			return err
		}
		r.debt.Add(-1)
	}
}

// refresh pre-grows the next frontier segment, copies the stale slot
// active-debt into the active segment and recycles that slot.
func (r *Ring[T]) refresh(active, debt int) (err error) {
	finish := r.metrics.TraceGrow()
	defer func() { finish(err) }()

	grown, err := r.slots[r.frontier].seg.GrowFromLast(r.alloc)
	if err != nil {
		return err
	}
	r.frontier = (r.frontier + 1) & r.mask

	replace := (active - debt) & r.mask
	stale := r.slots[replace].seg
	r.slots[replace].state = slotRefreshing

	n := r.slots[active].seg.CopyFrom(stale)
	stale.Free(r.alloc)
	r.slots[replace] = slot[T]{seg: grown}

	r.metrics.Copied(n)
	r.metrics.Freed()
	r.logger.Debug("segment refreshed",
		"slot", replace,
		"copied", n,
		"frontier_capacity", grown.Cap())
	return nil
}

func (r *Ring[T]) fail(err error) error {
	r.err = brokenError(err)
	r.logger.Error("ring grow failed", "error", err)
	return r.err
}

// Len returns the number of pushed elements.
func (r *Ring[T]) Len() int {
	r.panicIfReleased()
	return r.slots[r.active].seg.Len()
}

// Capacity returns the capacity of the active segment: the number of
// elements the ring holds before its next rotation.
func (r *Ring[T]) Capacity() int {
	r.panicIfReleased()
	return r.slots[r.active].seg.Cap()
}

// FrontierCapacity returns the capacity of the largest pre-grown segment.
func (r *Ring[T]) FrontierCapacity() int {
	r.settleForRead()
	return r.live(r.frontier).Cap()
}

// Depth returns the number of ring slots.
func (r *Ring[T]) Depth() int { return r.mask + 1 }

// CopyDebt returns the number of stale slots still owed a refresh copy.
// It is safe to call while a background grow is running.
func (r *Ring[T]) CopyDebt() int { return int(r.debt.Load()) }

// Get returns element i. i must be in [0, Len()); anything else panics.
func (r *Ring[T]) Get(i int) T {
	return *r.Ref(i)
}

// Ref returns a pointer to element i, valid until the next Push.
func (r *Ring[T]) Ref(i int) *T {
	r.settleForRead()
	return r.live(r.active).At(i)
}

// Set overwrites element i.
func (r *Ring[T]) Set(i int, v T) {
	*r.Ref(i) = v
}

// Sync waits for an outstanding background grow and returns its error.
func (r *Ring[T]) Sync() error {
	r.panicIfReleased()
	if r.err != nil {
		return r.err
	}
	if err := r.sched.settle(); err != nil {
		return r.fail(err)
	}
	return nil
}

// Release stops the grow worker and frees every segment exactly once.
// The ring is unusable afterwards; calling Release again is a no-op.
func (r *Ring[T]) Release() error {
	if r.slots == nil {
		return nil
	}
	err := r.sched.stop()
	r.freeAll()
	r.slots = nil
	r.logger.Debug("ring released")
	return err
}

func (r *Ring[T]) freeAll() {
	for i := range r.slots {
		if seg := r.slots[i].seg; seg != nil && !seg.Freed() {
			seg.Free(r.alloc)
		}
		r.slots[i] = slot[T]{}
	}
}

// settleForRead makes sure no refresh is writing the active segment. A
// failed grow leaves the placeholder region unfilled, so reads panic with
// the stored error.
func (r *Ring[T]) settleForRead() {
	r.panicIfReleased()
	if r.err == nil && !r.sched.pending() {
		return
	}
	if err := r.Sync(); err != nil {
		panic(err)
	}
}

// live returns the segment in slot i, which must not be mid-refresh.
func (r *Ring[T]) live(i int) *Segment[T] {
	s := r.slots[i]
	if s.state != slotLive {
		panic("growvec: read of a slot mid-refresh")
	}
	return s.seg
}

func (r *Ring[T]) panicIfReleased() {
	if r.slots == nil {
		panic("growvec: use after Release()")
	}
}
