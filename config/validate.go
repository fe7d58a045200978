package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidThreshold is returned when the similarity threshold is outside [0, 1].
var ErrInvalidThreshold = errors.New("similarity threshold must be between 0.0 and 1.0")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := ValidateThreshold(c.SimilarityThreshold); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if !slices.Contains(OutputFormats(), c.Output.Format) {
		return fmt.Errorf("output.format: unsupported value %q (want one of %s)",
			c.Output.Format, strings.Join(OutputFormats(), ", "))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Strategy {
	case StrategyEphemeral:
		return nil
	case StrategyPersistent:
	default:
		return fmt.Errorf("cache.strategy: unsupported value %q", c.Cache.Strategy)
	}
	if c.Cache.Dir == "" {
		return errors.New("cache.dir must be set when cache.strategy is persistent")
	}
	switch c.Cache.Backend {
	case BackendDir, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("cache.backend: unsupported value %q", c.Cache.Backend)
	}
}

// ValidateThreshold rejects thresholds outside the inclusive range [0, 1].
func ValidateThreshold(threshold float64) error {
	// NaN fails both comparisons, so test for the valid range.
	if !(threshold >= 0 && threshold <= 1) {
		return fmt.Errorf("%w, got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// ParseThreshold parses and validates a threshold given on the command line.
func ParseThreshold(value string) (float64, error) {
	threshold, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold value %q: %w", value, err)
	}
	if err := ValidateThreshold(threshold); err != nil {
		return 0, err
	}
	return threshold, nil
}
