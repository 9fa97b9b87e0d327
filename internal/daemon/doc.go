// Package daemon hosts the long-running conversion service: it combines the
// job controller, disc insertion monitor, and HTTP API into a single
// lifecycle with flock-based locking to prevent multiple instances.
package daemon
