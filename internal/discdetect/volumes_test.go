package discdetect

import (
	"os"
	"path/filepath"
	"testing"
)

func makeVolumeRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join(root, "HOLIDAY_DISC", "VIDEO_TS"),
		filepath.Join(root, "usb-stick"),
		filepath.Join(root, ".hidden"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	// A plain file at the root must be ignored.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return root
}

func TestDiscoverVolumes(t *testing.T) {
	root := makeVolumeRoot(t)

	volumes := DiscoverVolumes([]string{root, "/does/not/exist", ""})
	if len(volumes) != 2 {
		t.Fatalf("expected 2 volumes, got %v", volumes)
	}
	if volumes[0].Name != "HOLIDAY_DISC" || !volumes[0].Structured {
		t.Fatalf("expected structured HOLIDAY_DISC first, got %+v", volumes[0])
	}
	if volumes[1].Name != "usb-stick" || volumes[1].Structured {
		t.Fatalf("expected unstructured usb-stick, got %+v", volumes[1])
	}
}

func TestStructuredVolumes(t *testing.T) {
	root := makeVolumeRoot(t)

	structured := StructuredVolumes([]string{root})
	if len(structured) != 1 {
		t.Fatalf("expected 1 structured volume, got %v", structured)
	}
	if structured[0].Path != filepath.Join(root, "HOLIDAY_DISC") {
		t.Fatalf("unexpected path %q", structured[0].Path)
	}
}

func TestDiscoverVolumesEmptyRoots(t *testing.T) {
	if volumes := DiscoverVolumes(nil); len(volumes) != 0 {
		t.Fatalf("expected no volumes, got %v", volumes)
	}
}
