// Package controller owns the conversion job lifecycle: single-job
// admission, the phase state machine, progress aggregation, and state
// broadcast to observers.
package controller
