package config

import (
	"errors"
	"fmt"

	"platter/internal/profile"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.PhaseTimeout < 0 {
		return errors.New("engine.phase_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateConversion() error {
	if !profile.Supported(c.Conversion.DefaultFormat) {
		return fmt.Errorf("conversion.default_format: unsupported format %q (supported: %v)",
			c.Conversion.DefaultFormat, profile.Formats())
	}
	switch c.Conversion.AudioTracks {
	case "all", "first":
	default:
		return fmt.Errorf("conversion.audio_tracks must be %q or %q", "all", "first")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "console", "json")
	}
	return nil
}
