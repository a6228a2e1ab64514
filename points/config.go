/*
config.go - TOML configuration for the points engine

PURPOSE:
  The policy knobs the spec treats as configuration (status bands, allowed
  magnitudes, roll-off decrement, undo depth) plus process settings
  (database path, scheduler interval) load from one optional TOML file.
  Compiled-in defaults match the stock ruleset, so a missing file is fine.

FILE SHAPE:

  [storage]
  path = "attendance_MASTER.db"

  [policy]
  allowed_magnitudes = [0.5, 1.0, 1.5]
  rolloff_decrement = 1.0
  undo_depth = 20

  [[policy.bands]]
  threshold = 4.0
  status = "Warning"

  [rolloff]
  check_interval = "1h"

SEE ALSO:
  - policy.go: The Policy struct these values assemble into
*/
package points

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG - File representation
// =============================================================================

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Policy  PolicyConfig  `toml:"policy"`
	Rolloff RolloffConfig `toml:"rolloff"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type PolicyConfig struct {
	AllowedMagnitudes []float64    `toml:"allowed_magnitudes"`
	RolloffDecrement  float64      `toml:"rolloff_decrement"`
	UndoDepth         int          `toml:"undo_depth"`
	Bands             []BandConfig `toml:"bands"`
}

type BandConfig struct {
	Threshold float64 `toml:"threshold"`
	Status    string  `toml:"status"`
}

type RolloffConfig struct {
	CheckInterval string `toml:"check_interval"`
}

// DefaultConfig returns the compiled-in settings.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{Path: "attendance_MASTER.db"},
		Policy: PolicyConfig{
			AllowedMagnitudes: []float64{0.5, 1.0, 1.5},
			RolloffDecrement:  1.0,
			UndoDepth:         20,
			Bands: []BandConfig{
				{Threshold: 4.0, Status: string(StatusWarning)},
				{Threshold: 5.0, Status: string(StatusCritical)},
				{Threshold: 7.0, Status: string(StatusTermination)},
			},
		},
		Rolloff: RolloffConfig{CheckInterval: "1h"},
	}
}

// LoadConfig reads path over the defaults. A missing file returns the
// defaults; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configs the engine cannot run on.
func (c Config) Validate() error {
	if len(c.Policy.AllowedMagnitudes) == 0 {
		return fmt.Errorf("policy.allowed_magnitudes must not be empty")
	}
	for _, m := range c.Policy.AllowedMagnitudes {
		if m <= 0 {
			return fmt.Errorf("policy.allowed_magnitudes: %v is not positive", m)
		}
	}
	if c.Policy.RolloffDecrement <= 0 {
		return fmt.Errorf("policy.rolloff_decrement must be positive")
	}
	if c.Policy.UndoDepth < 1 {
		return fmt.Errorf("policy.undo_depth must be at least 1")
	}
	if len(c.Policy.Bands) == 0 {
		return fmt.Errorf("policy.bands must not be empty")
	}
	prev := -1.0
	for _, b := range c.Policy.Bands {
		if b.Threshold <= prev {
			return fmt.Errorf("policy.bands: thresholds must be strictly ascending")
		}
		prev = b.Threshold
		switch Status(b.Status) {
		case StatusSafe, StatusWarning, StatusCritical, StatusTermination:
		default:
			return fmt.Errorf("policy.bands: unknown status %q", b.Status)
		}
	}
	if _, err := time.ParseDuration(c.Rolloff.CheckInterval); err != nil {
		return fmt.Errorf("rolloff.check_interval: %w", err)
	}
	return nil
}

// BuildPolicy assembles the runtime Policy from the config values.
func (c Config) BuildPolicy() Policy {
	p := Policy{
		RolloffDecrement: NewPoints(c.Policy.RolloffDecrement),
		UndoDepth:        c.Policy.UndoDepth,
	}
	for _, m := range c.Policy.AllowedMagnitudes {
		p.AllowedMagnitudes = append(p.AllowedMagnitudes, NewPoints(m))
	}
	for _, b := range c.Policy.Bands {
		p.Bands = append(p.Bands, StatusBand{Threshold: NewPoints(b.Threshold), Status: Status(b.Status)})
	}
	return p
}

// CheckInterval returns the parsed scheduler interval.
func (c Config) CheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Rolloff.CheckInterval)
	if err != nil {
		return time.Hour
	}
	return d
}
