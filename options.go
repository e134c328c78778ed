package growvec

import (
	"io"
	"log/slog"

	"github.com/pavanmanishd/growvec/alloc"
)

// GrowthPolicy reports whether an AtomicVec holding length elements in a
// buffer of the given capacity should start growing.
type GrowthPolicy func(length, capacity int) bool

// LoadFactor returns a policy that grows once length/capacity exceeds f, or
// when there is no buffer yet.
func LoadFactor(f float64) GrowthPolicy {
	return func(length, capacity int) bool {
		return capacity == 0 || float64(length) > f*float64(capacity)
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type settings[T any] struct {
	cfg    Config
	alloc  alloc.Allocator[T]
	logger *slog.Logger
	policy GrowthPolicy
}

// Option configures a Ring or an AtomicVec.
type Option[T any] func(*settings[T])

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig[T any](cfg Config) Option[T] {
	return func(s *settings[T]) {
		s.cfg = cfg
	}
}

// WithDepth sets the number of ring segments (power of two in [2, MaxDepth]).
func WithDepth[T any](depth int) Option[T] {
	return func(s *settings[T]) {
		s.cfg.Depth = depth
	}
}

// WithOffload moves ring refresh copies onto a background worker. The
// worker runs until Ring.Release, which must be called.
func WithOffload[T any]() Option[T] {
	return func(s *settings[T]) {
		s.cfg.Offload = true
	}
}

// WithSeed sets the first buffer size of an AtomicVec.
func WithSeed[T any](n int) Option[T] {
	return func(s *settings[T]) {
		s.cfg.AtomicSeed = n
	}
}

// WithAllocator sets the block allocator. The default is the Go heap.
func WithAllocator[T any](a alloc.Allocator[T]) Option[T] {
	return func(s *settings[T]) {
		s.alloc = a
	}
}

// WithLogger sets the logger used for growth events. Logging is discarded
// by default.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(s *settings[T]) {
		s.logger = l
	}
}

// WithPolicy replaces the AtomicVec growth policy.
func WithPolicy[T any](p GrowthPolicy) Option[T] {
	return func(s *settings[T]) {
		s.policy = p
	}
}

func buildSettings[T any](opts []Option[T]) (settings[T], error) {
	s := settings[T]{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.cfg.SeedCapacity == 0 {
		s.cfg.SeedCapacity = DefaultSeedCapacity
	}
	if s.cfg.AtomicSeed == 0 {
		s.cfg.AtomicSeed = DefaultAtomicSeed
	}
	if s.cfg.Depth == 0 {
		s.cfg.Depth = DefaultDepth
	}
	if s.cfg.LoadFactor == 0 {
		s.cfg.LoadFactor = DefaultLoadFactor
	}
	if err := s.cfg.Validate(); err != nil {
		return s, err
	}
	if s.alloc == nil {
		s.alloc = alloc.NewHeap[T]()
	}
	if s.logger == nil {
		s.logger = discardLogger
	}
	if s.policy == nil {
		s.policy = LoadFactor(s.cfg.LoadFactor)
	}
	return s, nil
}
