// Package preflight validates the runtime environment before conversions
// start: directory permissions, the optical drive node, and the external
// engine binaries.
package preflight
