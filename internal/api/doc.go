// Package api defines the daemon's HTTP payload types and the client the CLI
// uses to talk to it.
package api
