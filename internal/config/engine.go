package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
const DefaultConfigPath = "config/engine.defaults.json"

// EngineConfig is the startup configuration of the room-mode service.
// Fields omitted from the JSON keep nil and the Get* accessors return the
// built-in default. Values are read once at startup; nothing changes them
// while an engine is running.
type EngineConfig struct {
	// Physical and numerical constants bound into roommodes.Engine
	SpeedOfSound       *float64 `json:"speed_of_sound,omitempty"`
	GridResolutionX    *int     `json:"grid_resolution_x,omitempty"`
	GridResolutionY    *int     `json:"grid_resolution_y,omitempty"`
	GridResolutionZ    *int     `json:"grid_resolution_z,omitempty"`
	FrequencyTolerance *float64 `json:"frequency_tolerance,omitempty"`
	MaxEnumeration     *int     `json:"max_enumeration,omitempty"`

	// Service limits
	MaxFrequencyLimit *float64 `json:"max_frequency_limit,omitempty"`
	RequestTimeout    *string  `json:"request_timeout,omitempty"` // duration string like "2s"
	FieldCacheSize    *int     `json:"field_cache_size,omitempty"`

	// Session defaults
	DefaultSliceHeight      *float64 `json:"default_slice_height,omitempty"`
	DefaultHotspotThreshold *float64 `json:"default_hotspot_threshold,omitempty"`
	DefaultSelectionCount   *int     `json:"default_selection_count,omitempty"`
	SessionTTL              *string  `json:"session_ttl,omitempty"` // duration string like "30m"
}

// EmptyEngineConfig returns an EngineConfig with every field unset.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// LoadEngineConfig loads an EngineConfig from a JSON file. The file must
// have a .json extension and be at most 1MB.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for tests and binaries run from inside the repository.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/roommodes/ subpackages
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks every field that is set.
func (c *EngineConfig) Validate() error {
	if c.SpeedOfSound != nil && !(*c.SpeedOfSound > 0) {
		return fmt.Errorf("speed_of_sound must be positive, got %v", *c.SpeedOfSound)
	}
	for name, v := range map[string]*int{
		"grid_resolution_x": c.GridResolutionX,
		"grid_resolution_y": c.GridResolutionY,
		"grid_resolution_z": c.GridResolutionZ,
	} {
		if v != nil && (*v < 1 || *v > 256) {
			return fmt.Errorf("%s must be between 1 and 256, got %d", name, *v)
		}
	}
	if c.FrequencyTolerance != nil && (*c.FrequencyTolerance < 0 || *c.FrequencyTolerance >= 1) {
		return fmt.Errorf("frequency_tolerance must be in [0, 1), got %v", *c.FrequencyTolerance)
	}
	if c.MaxEnumeration != nil && *c.MaxEnumeration < 1 {
		return fmt.Errorf("max_enumeration must be positive, got %d", *c.MaxEnumeration)
	}
	if c.MaxFrequencyLimit != nil && !(*c.MaxFrequencyLimit > 0) {
		return fmt.Errorf("max_frequency_limit must be positive, got %v", *c.MaxFrequencyLimit)
	}
	if c.RequestTimeout != nil && *c.RequestTimeout != "" {
		d, err := time.ParseDuration(*c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout '%s': %w", *c.RequestTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("request_timeout must be positive, got %s", d)
		}
	}
	if c.SessionTTL != nil && *c.SessionTTL != "" {
		if _, err := time.ParseDuration(*c.SessionTTL); err != nil {
			return fmt.Errorf("invalid session_ttl '%s': %w", *c.SessionTTL, err)
		}
	}
	if c.FieldCacheSize != nil && *c.FieldCacheSize < 0 {
		return fmt.Errorf("field_cache_size must be non-negative, got %d", *c.FieldCacheSize)
	}
	if c.DefaultSliceHeight != nil && (math.IsNaN(*c.DefaultSliceHeight) || *c.DefaultSliceHeight < 0) {
		return fmt.Errorf("default_slice_height must be non-negative, got %v", *c.DefaultSliceHeight)
	}
	if c.DefaultHotspotThreshold != nil && !(*c.DefaultHotspotThreshold >= 0 && *c.DefaultHotspotThreshold <= 1) {
		return fmt.Errorf("default_hotspot_threshold must be between 0 and 1, got %v", *c.DefaultHotspotThreshold)
	}
	if c.DefaultSelectionCount != nil && *c.DefaultSelectionCount < 0 {
		return fmt.Errorf("default_selection_count must be non-negative, got %d", *c.DefaultSelectionCount)
	}
	return nil
}

// GetSpeedOfSound returns the speed_of_sound value or the default.
func (c *EngineConfig) GetSpeedOfSound() float64 {
	if c.SpeedOfSound == nil {
		return roommodes.DefaultSpeedOfSound
	}
	return *c.SpeedOfSound
}

// GetGridResolution returns the per-axis grid sample counts.
func (c *EngineConfig) GetGridResolution() roommodes.Resolution {
	res := roommodes.Resolution{X: roommodes.DefaultGridSamples, Y: roommodes.DefaultGridSamples, Z: roommodes.DefaultGridSamples}
	if c.GridResolutionX != nil {
		res.X = *c.GridResolutionX
	}
	if c.GridResolutionY != nil {
		res.Y = *c.GridResolutionY
	}
	if c.GridResolutionZ != nil {
		res.Z = *c.GridResolutionZ
	}
	return res
}

// GetFrequencyTolerance returns the frequency_tolerance value or the default.
func (c *EngineConfig) GetFrequencyTolerance() float64 {
	if c.FrequencyTolerance == nil {
		return roommodes.DefaultFrequencyTolerance
	}
	return *c.FrequencyTolerance
}

// GetMaxEnumeration returns the max_enumeration value or the default.
func (c *EngineConfig) GetMaxEnumeration() int {
	if c.MaxEnumeration == nil {
		return roommodes.DefaultMaxEnumeration
	}
	return *c.MaxEnumeration
}

// GetMaxFrequencyLimit returns the highest frequency ceiling accepted from
// clients, in Hz.
func (c *EngineConfig) GetMaxFrequencyLimit() float64 {
	if c.MaxFrequencyLimit == nil {
		return 2000
	}
	return *c.MaxFrequencyLimit
}

// GetRequestTimeout parses and returns the RequestTimeout as a time.Duration.
func (c *EngineConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == nil || *c.RequestTimeout == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(*c.RequestTimeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetFieldCacheSize returns the field_cache_size value or the default.
func (c *EngineConfig) GetFieldCacheSize() int {
	if c.FieldCacheSize == nil {
		return 64
	}
	return *c.FieldCacheSize
}

// GetDefaultSliceHeight returns the default_slice_height value or the default.
func (c *EngineConfig) GetDefaultSliceHeight() float64 {
	if c.DefaultSliceHeight == nil {
		return 1.2
	}
	return *c.DefaultSliceHeight
}

// GetDefaultHotspotThreshold returns the default_hotspot_threshold value or the default.
func (c *EngineConfig) GetDefaultHotspotThreshold() float64 {
	if c.DefaultHotspotThreshold == nil {
		return 0.8
	}
	return *c.DefaultHotspotThreshold
}

// GetDefaultSelectionCount returns the default_selection_count value or the default.
func (c *EngineConfig) GetDefaultSelectionCount() int {
	if c.DefaultSelectionCount == nil {
		return 6
	}
	return *c.DefaultSelectionCount
}

// GetSessionTTL parses and returns the SessionTTL as a time.Duration.
// Zero disables expiry.
func (c *EngineConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL == nil || *c.SessionTTL == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(*c.SessionTTL)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// ToCoreConfig builds the immutable constants for roommodes.NewEngine.
func (c *EngineConfig) ToCoreConfig() roommodes.Config {
	return roommodes.Config{
		SpeedOfSound:       c.GetSpeedOfSound(),
		Resolution:         c.GetGridResolution(),
		FrequencyTolerance: c.GetFrequencyTolerance(),
		MaxEnumeration:     c.GetMaxEnumeration(),
	}
}
