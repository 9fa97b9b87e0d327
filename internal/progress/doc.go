// Package progress parses the external engine's live diagnostic text into a
// monotonic completion percentage.
package progress
