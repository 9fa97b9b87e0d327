package discdetect

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"platter/internal/catalog"
)

// Volume is one mounted directory that may hold disc content.
type Volume struct {
	Path string
	Name string
	// Structured reports whether the volume carries a VIDEO_TS layout.
	Structured bool
}

// DiscoverVolumes walks each configured mount root one level deep and returns
// the directories found there, flagging the ones with disc structure. Roots
// that do not exist are skipped; a machine without /Volumes or /media is
// normal.
func DiscoverVolumes(roots []string) []Volume {
	var volumes []Volume
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(root, name)
			volumes = append(volumes, Volume{
				Path:       path,
				Name:       name,
				Structured: catalog.IsStructuredVolume(path),
			})
		}
	}
	return volumes
}

// StructuredVolumes filters DiscoverVolumes down to disc-structured entries.
func StructuredVolumes(roots []string) []Volume {
	var structured []Volume
	for _, volume := range DiscoverVolumes(roots) {
		if volume.Structured {
			structured = append(structured, volume)
		}
	}
	return structured
}
