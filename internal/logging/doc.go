// Package logging assembles the structured slog loggers used across the
// conversion pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes a no-op logger for tests and wiring code that
// cannot fail. Prefer these constructors over hand-rolled slog setup so every
// component emits records with the same shape.
package logging
