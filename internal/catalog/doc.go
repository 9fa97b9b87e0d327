// Package catalog discovers and orders the source segments that make up one
// optical-media title.
package catalog
