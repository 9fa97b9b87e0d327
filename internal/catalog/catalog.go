package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoSegments reports a structured volume with no qualifying title segments.
var ErrNoSegments = errors.New("no title segments found")

var volumeMarkers = []string{"VIDEO_TS", "video_ts"}

// Segment is one physically ordered chunk of a title's video data. Segments
// are immutable once enumerated; their order is playback order.
type Segment struct {
	Path    string
	Size    int64
	Ordinal int
}

// IsStructuredVolume reports whether root uses the optical-media directory
// convention (a VIDEO_TS marker directory at the top level).
func IsStructuredVolume(root string) bool {
	for _, marker := range volumeMarkers {
		if info, err := os.Stat(filepath.Join(root, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// Scan enumerates the ordered segments for the title at root.
//
// A structured volume yields the VTS_01 title group under VIDEO_TS, excluding
// the index-0 menu/navigation segment, sorted by filename ascending. For this
// naming convention filename order equals timeline order, and downstream
// concatenation depends on it: no integrity check exists later, so the sort
// contract here is load-bearing. A plain file is a single segment.
func Scan(root string) ([]Segment, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("source path required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	if !info.IsDir() {
		return []Segment{{Path: abs, Size: info.Size(), Ordinal: 0}}, nil
	}

	if !IsStructuredVolume(abs) {
		return nil, fmt.Errorf("%w: %s is a directory without a VIDEO_TS structure", ErrNoSegments, abs)
	}

	videoDir := ""
	for _, marker := range volumeMarkers {
		candidate := filepath.Join(abs, marker)
		if stat, err := os.Stat(candidate); err == nil && stat.IsDir() {
			videoDir = candidate
			break
		}
	}

	entries, err := os.ReadDir(videoDir)
	if err != nil {
		return nil, fmt.Errorf("read video directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	sizes := make(map[string]int64, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !qualifies(name) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		names = append(names, name)
		sizes[name] = fi.Size()
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSegments, videoDir)
	}

	sort.Strings(names)

	segments := make([]Segment, 0, len(names))
	for i, name := range names {
		segments = append(segments, Segment{
			Path:    filepath.Join(videoDir, name),
			Size:    sizes[name],
			Ordinal: i,
		})
	}
	return segments, nil
}

// qualifies matches the VTS_01 title group and rejects the _0 navigation
// segment, case-insensitively on the extension the way discs are mastered.
func qualifies(name string) bool {
	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, "VTS_01_") || !strings.HasSuffix(upper, ".VOB") {
		return false
	}
	return !strings.HasSuffix(upper, "_0.VOB")
}
