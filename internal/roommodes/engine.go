package roommodes

import (
	"fmt"
	"math"
)

const (
	// DefaultSpeedOfSound is the speed of sound in air at standard
	// conditions, in m/s.
	DefaultSpeedOfSound = 343.0

	// DefaultFrequencyTolerance is the relative difference below which two
	// mode frequencies are treated as coincident for degeneracy grouping.
	// Locked by TestDegeneracyToleranceRegression.
	DefaultFrequencyTolerance = 1e-6

	// DefaultGridSamples is the per-axis sample count of the synthesis grid.
	DefaultGridSamples = 32

	// DefaultMaxEnumeration caps the number of candidate index triples a
	// single GenerateModes call may visit.
	DefaultMaxEnumeration = 2_000_000
)

// Config holds the physical and numerical constants of an Engine. It is
// copied into the Engine at construction and cannot change afterwards.
type Config struct {
	SpeedOfSound       float64    // m/s (default: 343)
	Resolution         Resolution // grid samples per axis (default: 32x32x32)
	FrequencyTolerance float64    // relative tolerance for degeneracy (default: 1e-6)
	MaxEnumeration     int        // candidate triple budget (default: 2e6)
}

// DefaultConfig returns the standard engine constants.
func DefaultConfig() Config {
	return Config{
		SpeedOfSound:       DefaultSpeedOfSound,
		Resolution:         Resolution{X: DefaultGridSamples, Y: DefaultGridSamples, Z: DefaultGridSamples},
		FrequencyTolerance: DefaultFrequencyTolerance,
		MaxEnumeration:     DefaultMaxEnumeration,
	}
}

// Validate checks that every constant is usable.
func (c Config) Validate() error {
	if math.IsNaN(c.SpeedOfSound) || math.IsInf(c.SpeedOfSound, 0) || c.SpeedOfSound <= 0 {
		return fmt.Errorf("SpeedOfSound must be positive and finite, got %v", c.SpeedOfSound)
	}
	if err := c.Resolution.validate(); err != nil {
		return err
	}
	if math.IsNaN(c.FrequencyTolerance) || c.FrequencyTolerance < 0 || c.FrequencyTolerance >= 1 {
		return fmt.Errorf("FrequencyTolerance must be in [0, 1), got %v", c.FrequencyTolerance)
	}
	if c.MaxEnumeration < 1 {
		return fmt.Errorf("MaxEnumeration must be positive, got %d", c.MaxEnumeration)
	}
	return nil
}

// WithResolution returns a copy of c using an n×n×n grid.
func (c Config) WithResolution(n int) Config {
	c.Resolution = Resolution{X: n, Y: n, Z: n}
	return c
}

// WithSpeedOfSound returns a copy of c using the given speed of sound.
func (c Config) WithSpeedOfSound(v float64) Config {
	c.SpeedOfSound = v
	return c
}

// Engine evaluates room modes and pressure fields for a fixed Config.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and binds it to a new Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// MustNewEngine is NewEngine for configs known to be valid.
func MustNewEngine(cfg Config) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Config returns a copy of the engine constants.
func (e *Engine) Config() Config {
	return e.cfg
}
