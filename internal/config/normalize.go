package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeConversion()
	c.normalizeDetection()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeEngine() {
	if strings.TrimSpace(c.Engine.FFmpegBinary) == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Engine.FFprobeBinary) == "" {
		c.Engine.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeConversion() {
	c.Conversion.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Conversion.DefaultFormat))
	if c.Conversion.DefaultFormat == "" {
		c.Conversion.DefaultFormat = defaultFormat
	}
	c.Conversion.AudioTracks = strings.ToLower(strings.TrimSpace(c.Conversion.AudioTracks))
	if c.Conversion.AudioTracks == "" {
		c.Conversion.AudioTracks = defaultAudioTracks
	}
}

func (c *Config) normalizeDetection() {
	c.Detection.OpticalDrive = strings.TrimSpace(c.Detection.OpticalDrive)
	if len(c.Detection.VolumeRoots) == 0 {
		c.Detection.VolumeRoots = defaultVolumeRoots()
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
