// Package inspect runs the engine's inspection mode against a title's first
// segment and assembles the stream metadata the command builder consumes.
package inspect
