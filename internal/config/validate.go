package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.FuzzyThreshold <= 0 || c.Matching.FuzzyThreshold > 1 {
		return errors.New("matching.fuzzy_threshold must be in (0, 1]")
	}
	if c.Matching.FuzzyConfidence <= 0 || c.Matching.FuzzyConfidence >= 0.95 {
		return errors.New("matching.fuzzy_confidence must be in (0, 0.95) so fuzzy matches rank below normalized ones")
	}
	if c.Matching.ShortTermLength < 0 {
		return errors.New("matching.short_term_length must be non-negative")
	}
	if c.Matching.ShortContextLength < 0 {
		return errors.New("matching.short_context_length must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
