// Package profile holds the static table mapping output formats to fully
// specified encoder parameter sets.
package profile
