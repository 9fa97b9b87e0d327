// Package ffprobe wraps the external engine's inspection mode and decodes its
// JSON stream/format report.
package ffprobe
