// Package command builds the external-engine invocations realizing one
// conversion job: per-segment transcodes followed by a stream-copy
// concatenation.
package command
