package telemetry

import (
	"sync/atomic"
	"time"
)

// GrowMetrics aggregates counters about container growth. All fields are
// updated atomically so producers and the grow worker can record into the
// same instance.
type GrowMetrics struct {
	grows         atomic.Uint64
	failures      atomic.Uint64
	rotations     atomic.Uint64
	copied        atomic.Uint64
	blocked       atomic.Uint64
	segmentsFreed atomic.Uint64
	totalDuration atomic.Int64
}

// TraceGrow starts timing one grow step and returns a finish function that
// records its duration and outcome.
func (m *GrowMetrics) TraceGrow() func(error) {
	start := time.Now()
	m.grows.Add(1)
	return func(err error) {
		m.totalDuration.Add(time.Since(start).Nanoseconds())
		if err != nil {
			m.failures.Add(1)
		}
	}
}

// Rotated records an active-segment rotation.
func (m *GrowMetrics) Rotated() { m.rotations.Add(1) }

// Copied records n elements copied between buffers.
func (m *GrowMetrics) Copied(n int) { m.copied.Add(uint64(n)) }

// Blocked records a push that had to wait for an in-flight grow.
func (m *GrowMetrics) Blocked() { m.blocked.Add(1) }

// Freed records a retired segment or buffer.
func (m *GrowMetrics) Freed() { m.segmentsFreed.Add(1) }

// GrowSnapshot is a point-in-time copy of GrowMetrics.
type GrowSnapshot struct {
	Grows         uint64
	Failures      uint64
	Rotations     uint64
	Copied        uint64
	Blocked       uint64
	Freed         uint64
	AverageGrow   time.Duration
	TotalGrowTime time.Duration
}

// Snapshot returns the collected values.
func (m *GrowMetrics) Snapshot() GrowSnapshot {
	s := GrowSnapshot{
		Grows:         m.grows.Load(),
		Failures:      m.failures.Load(),
		Rotations:     m.rotations.Load(),
		Copied:        m.copied.Load(),
		Blocked:       m.blocked.Load(),
		Freed:         m.segmentsFreed.Load(),
		TotalGrowTime: time.Duration(m.totalDuration.Load()),
	}
	if s.Grows > 0 {
		s.AverageGrow = s.TotalGrowTime / time.Duration(s.Grows)
	}
	return s
}

// Reset sets all counters back to zero.
func (m *GrowMetrics) Reset() {
	m.grows.Store(0)
	m.failures.Store(0)
	m.rotations.Store(0)
	m.copied.Store(0)
	m.blocked.Store(0)
	m.segmentsFreed.Store(0)
	m.totalDuration.Store(0)
}
