// Package history records terminal conversion outcomes in a local SQLite
// database for later review.
package history
