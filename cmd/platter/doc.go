// Package main hosts the Platter CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon, local source analysis, and configuration
// scaffolding. It centralizes configuration resolution and client setup so
// subcommands can focus on user experience instead of wiring.
package main
