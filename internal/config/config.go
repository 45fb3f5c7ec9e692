// Package config handles reconstruction settings loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all rebind settings.
type Config struct {
	Reconstruct ReconstructConfig `yaml:"reconstruct"`
	Skin        SkinConfig        `yaml:"skin"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ReconstructConfig tunes the per-vertex solve.
type ReconstructConfig struct {
	Workers                int     `yaml:"workers"`                 // 0 = GOMAXPROCS
	BatchSize              int     `yaml:"batch_size"`              // vertices per work unit
	ConditionLimit         float64 `yaml:"condition_limit"`         // 0 = gonum default tolerance
	NormalizationTolerance float64 `yaml:"normalization_tolerance"` // weight-sum deviation to warn about
}

// SkinConfig holds the methods used for the fresh skin binding on the
// reconstructed mesh.
type SkinConfig struct {
	BindMethod int `yaml:"bind_method"` // 0 closest distance, 1 closest in hierarchy
	SkinMethod int `yaml:"skin_method"` // 0 linear
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Reconstruct: ReconstructConfig{
			Workers:                0,
			BatchSize:              1024,
			ConditionLimit:         1e14,
			NormalizationTolerance: 1e-3,
		},
		Skin: SkinConfig{
			BindMethod: 0,
			SkinMethod: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

var (
	ErrInvalidWorkers    = errors.New("workers must not be negative")
	ErrInvalidBatchSize  = errors.New("batch_size must be positive")
	ErrInvalidCondition  = errors.New("condition_limit must not be negative")
	ErrInvalidTolerance  = errors.New("normalization_tolerance must not be negative")
	ErrInvalidBindMethod = errors.New("unsupported bind_method")
	ErrInvalidSkinMethod = errors.New("unsupported skin_method")
	ErrInvalidLogLevel   = errors.New("unknown logging level")
)

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	r := c.Reconstruct
	switch {
	case r.Workers < 0:
		return ErrInvalidWorkers
	case r.BatchSize <= 0:
		return ErrInvalidBatchSize
	case r.ConditionLimit < 0:
		return ErrInvalidCondition
	case r.NormalizationTolerance < 0:
		return ErrInvalidTolerance
	}

	if c.Skin.BindMethod < 0 || c.Skin.BindMethod > 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBindMethod, c.Skin.BindMethod)
	}
	// Only linear blend skinning is reconstructed.
	if c.Skin.SkinMethod != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSkinMethod, c.Skin.SkinMethod)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}
