// Package engine executes the external transcoding engine and streams its
// diagnostic output line by line.
package engine
