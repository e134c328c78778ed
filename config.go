package growvec

import (
	"fmt"
	"io"
	"os"

	"github.com/sugawarayuuta/sonnet"
)

const (
	// DefaultSeedCapacity sizes the first ring segment when no hint is given.
	DefaultSeedCapacity = 512
	// DefaultDepth is the default number of ring segments.
	DefaultDepth = 4
	// MaxDepth bounds the ring depth: every slot is pre-grown to twice the
	// previous one, so a ring reserves about seed << depth elements.
	MaxDepth = 16
	// DefaultAtomicSeed is the first buffer size of an AtomicVec.
	DefaultAtomicSeed = 32
	// DefaultLoadFactor triggers AtomicVec growth at 75% occupancy.
	DefaultLoadFactor = 0.75
)

// Config holds the tunables shared by both containers.
type Config struct {
	// Ring configuration
	SeedCapacity int  `json:"seed_capacity"`
	Depth        int  `json:"depth"`
	Offload      bool `json:"offload"`

	// AtomicVec configuration
	AtomicSeed int     `json:"atomic_seed"`
	LoadFactor float64 `json:"load_factor"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SeedCapacity: DefaultSeedCapacity,
		Depth:        DefaultDepth,
		AtomicSeed:   DefaultAtomicSeed,
		LoadFactor:   DefaultLoadFactor,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.SeedCapacity < 0 || c.AtomicSeed < 0 {
		return ErrInvalidSeed
	}
	if c.Depth < 2 || c.Depth > MaxDepth || c.Depth&(c.Depth-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDepth, c.Depth)
	}
	if !(c.LoadFactor > 0 && c.LoadFactor <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidLoadFactor, c.LoadFactor)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return LoadConfigFromReader(f)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("growvec: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c Config) Save(path string) error {
	data, err := sonnet.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
