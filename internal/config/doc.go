// Package config loads, normalizes, and validates the TOML configuration
// shared by the platter CLI and daemon.
package config
