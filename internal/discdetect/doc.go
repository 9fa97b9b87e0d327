// Package discdetect finds disc content: it probes mounted volume roots for
// VIDEO_TS structure and, on Linux, watches udev netlink events for media
// insertion on the configured optical drive.
package discdetect
