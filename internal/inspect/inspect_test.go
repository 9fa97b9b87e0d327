package inspect

import (
	"context"
	"errors"
	"testing"

	"platter/internal/catalog"
	"platter/internal/media/ffprobe"
)

func stubProbe(result ffprobe.Result, err error) ProbeFunc {
	return func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return result, err
	}
}

func sampleResult() ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecName: "mpeg2video", CodecType: "video", Width: 720, Height: 576},
			{Index: 1, CodecName: "ac3", CodecType: "audio", Channels: 6, Tags: ffprobe.Tags{Language: "eng"}},
			{Index: 2, CodecName: "ac3", CodecType: "audio", Channels: 2},
			{Index: 3, CodecName: "dvd_subtitle", CodecType: "subtitle", Tags: ffprobe.Tags{Language: "fra", Title: "Forced"}},
		},
		Format: ffprobe.Format{Tags: ffprobe.Tags{Title: "My Movie: Special Edition!"}},
	}
}

func segments(n int) []catalog.Segment {
	out := make([]catalog.Segment, n)
	for i := range out {
		out[i] = catalog.Segment{Path: "/video_ts/seg", Ordinal: i}
	}
	return out
}

func TestInspectBuildsTitleInfo(t *testing.T) {
	inspector := New("ffprobe", WithProbe(stubProbe(sampleResult(), nil)))
	info, err := inspector.Inspect(context.Background(), "/Volumes/MY_MOVIE", segments(2))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Title != "My_Movie_Special_Edition" {
		t.Fatalf("unexpected title: %q", info.Title)
	}
	if info.SegmentCount != 2 {
		t.Fatalf("unexpected segment count: %d", info.SegmentCount)
	}
	if len(info.Video) != 1 || info.Video[0].Width != 720 {
		t.Fatalf("unexpected video streams: %+v", info.Video)
	}
	if len(info.Audio) != 2 {
		t.Fatalf("expected 2 audio streams, got %d", len(info.Audio))
	}
	if info.Audio[0].Language != "eng" || info.Audio[0].Title != "Audio 1" {
		t.Fatalf("unexpected first audio stream: %+v", info.Audio[0])
	}
	if info.Audio[1].Language != "unknown" || info.Audio[1].Title != "Audio 2" {
		t.Fatalf("missing defaults on second audio stream: %+v", info.Audio[1])
	}
	if len(info.Subtitle) != 1 || info.Subtitle[0].Title != "Forced" || info.Subtitle[0].Language != "fra" {
		t.Fatalf("unexpected subtitle stream: %+v", info.Subtitle)
	}
}

func TestInspectFallsBackToVolumeName(t *testing.T) {
	result := sampleResult()
	result.Format.Tags.Title = ""
	inspector := New("ffprobe", WithProbe(stubProbe(result, nil)))
	info, err := inspector.Inspect(context.Background(), "/Volumes/holiday_trip-disc1", segments(1))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Title != "Holiday_Trip_Disc1" {
		t.Fatalf("unexpected derived title: %q", info.Title)
	}
}

func TestInspectFailureDegradesGracefully(t *testing.T) {
	inspector := New("ffprobe", WithProbe(stubProbe(ffprobe.Result{}, errors.New("exit status 1"))))
	info, err := inspector.Inspect(context.Background(), "/Volumes/BROKEN", segments(3))
	if !errors.Is(err, ErrInspectionFailed) {
		t.Fatalf("expected ErrInspectionFailed, got %v", err)
	}
	if info.Title != FallbackTitle {
		t.Fatalf("expected fallback title, got %q", info.Title)
	}
	if len(info.Audio) != 0 || len(info.Video) != 0 || len(info.Subtitle) != 0 {
		t.Fatalf("expected empty streams, got %+v", info)
	}
	if info.SegmentCount != 3 {
		t.Fatalf("fallback must keep segment count, got %d", info.SegmentCount)
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Movie: Special Edition!", "My_Movie_Special_Edition"},
		{"already_clean-1", "already_clean-1"},
		{"  trailing  ", "__trailing"},
		{"???", FallbackTitle},
		{"", FallbackTitle},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Fatalf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTitleIdempotent(t *testing.T) {
	inputs := []string{"My Movie: Special Edition!", "a b c", "x?y?z", "", "clean"}
	for _, in := range inputs {
		once := SanitizeTitle(in)
		twice := SanitizeTitle(once)
		if once != twice {
			t.Fatalf("sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
		for _, r := range once {
			valid := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
			if !valid {
				t.Fatalf("invalid rune %q in sanitized title %q", r, once)
			}
		}
	}
}
