package growvec

import (
	"time"

	"github.com/pavanmanishd/growvec/internal/telemetry"
)

// GrowStats counts growth activity over the life of a container.
type GrowStats struct {
	Grows         uint64        // Grow steps started (ring refreshes or buffer relocations)
	Failures      uint64        // Grow steps that failed
	Rotations     uint64        // Active segment rotations (Ring only)
	Copied        uint64        // Elements copied between blocks
	Blocked       uint64        // Pushes that waited for a grow (AtomicVec only)
	Freed         uint64        // Blocks retired
	AverageGrow   time.Duration // Mean duration of a grow step
	TotalGrowTime time.Duration // Sum of grow step durations
}

func growStats(s telemetry.GrowSnapshot) GrowStats {
	return GrowStats{
		Grows:         s.Grows,
		Failures:      s.Failures,
		Rotations:     s.Rotations,
		Copied:        s.Copied,
		Blocked:       s.Blocked,
		Freed:         s.Freed,
		AverageGrow:   s.AverageGrow,
		TotalGrowTime: s.TotalGrowTime,
	}
}

// RingMetrics contains statistical information about a Ring.
type RingMetrics struct {
	Len              int     // Elements pushed
	Capacity         int     // Capacity of the active segment
	FrontierCapacity int     // Capacity of the largest pre-grown segment
	Reserved         int     // Sum of capacities of all live segments
	Depth            int     // Number of ring slots
	CopyDebt         int     // Stale slots still owed a refresh
	Utilization      float64 // Len / Reserved
	Grow             GrowStats
}

// Metrics returns a snapshot of ring statistics. It waits for an
// outstanding background grow first.
func (r *Ring[T]) Metrics() RingMetrics {
	r.settleForRead()
	m := RingMetrics{
		Len:              r.Len(),
		Capacity:         r.Capacity(),
		FrontierCapacity: r.live(r.frontier).Cap(),
		Depth:            r.Depth(),
		CopyDebt:         r.CopyDebt(),
		Grow:             growStats(r.metrics.Snapshot()),
	}
	for i := range r.slots {
		m.Reserved += r.live(i).Cap()
	}
	if m.Reserved > 0 {
		m.Utilization = float64(m.Len) / float64(m.Reserved)
	}
	return m
}

// ResetMetrics zeroes the grow counters. Size fields are not affected.
func (r *Ring[T]) ResetMetrics() {
	_ = r.Sync()
	r.metrics.Reset()
}

// AtomicMetrics contains statistical information about an AtomicVec.
type AtomicMetrics struct {
	Len         int     // Elements pushed
	Capacity    int     // Capacity of the published buffer
	Version     uint64  // Number of buffers published so far
	Growing     bool    // A grow is in flight
	Utilization float64 // Len / Capacity
	Grow        GrowStats
}

// Metrics returns a snapshot of AtomicVec statistics. Safe for concurrent
// use; fields may be mutually stale while pushes are running.
func (v *AtomicVec[T]) Metrics() AtomicMetrics {
	snap := v.buf.Load()
	m := AtomicMetrics{
		Len:      v.Len(),
		Capacity: len(snap.data),
		Version:  snap.version,
		Growing:  v.Growing(),
		Grow:     growStats(v.metrics.Snapshot()),
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.Len) / float64(m.Capacity)
	}
	return m
}

// ResetMetrics zeroes the grow counters once no grow is in flight.
func (v *AtomicVec[T]) ResetMetrics() {
	_ = v.Wait()
	v.metrics.Reset()
}
