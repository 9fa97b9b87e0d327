package profile

import (
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedFormat reports a format identifier outside the supported set.
// Callers must validate formats before job admission; there is no silent
// default.
var ErrUnsupportedFormat = fmt.Errorf("unsupported output format")

// Profile is a named set of encoder parameters for one output format. Every
// profile fully specifies video and audio encoding; there are no partial
// profiles.
type Profile struct {
	Format       string
	VideoCodec   string
	Preset       string
	CRF          int
	MaxRate      string
	BufSize      string
	VideoProfile string
	Level        string
	Scale        string
	AudioCodec   string
	AudioBitrate string
	// BitRate is a straight target bitrate for codecs driven that way
	// instead of a maxrate/bufsize pair.
	BitRate string
	// SubtitleCodec is the text subtitle codec the container accepts, or
	// empty when the container cannot carry mapped text subtitles with this
	// profile.
	SubtitleCodec string
	// FastStart containers get the streaming-friendly moov relocation flag.
	FastStart bool
}

var profiles = map[string]Profile{
	"mp4": {
		Format:        "mp4",
		VideoCodec:    "libx264",
		Preset:        "veryslow",
		CRF:           30,
		MaxRate:       "300k",
		BufSize:       "600k",
		VideoProfile:  "baseline",
		Level:         "3.0",
		Scale:         "640:480",
		AudioCodec:    "aac",
		AudioBitrate:  "48k",
		SubtitleCodec: "mov_text",
		FastStart:     true,
	},
	"3gp": {
		Format:        "3gp",
		VideoCodec:    "libx264",
		Preset:        "veryslow",
		CRF:           32,
		MaxRate:       "200k",
		BufSize:       "400k",
		VideoProfile:  "baseline",
		Level:         "1.3",
		Scale:         "320:240",
		AudioCodec:    "aac",
		AudioBitrate:  "32k",
		SubtitleCodec: "mov_text",
		FastStart:     true,
	},
	"mkv": {
		Format:        "mkv",
		VideoCodec:    "libx264",
		Preset:        "slow",
		CRF:           26,
		MaxRate:       "500k",
		BufSize:       "1000k",
		Scale:         "720:576",
		AudioCodec:    "aac",
		AudioBitrate:  "128k",
		SubtitleCodec: "srt",
	},
	// WebM carries no SubtitleCodec: DVD bitmap subtitles cannot be turned
	// into WebVTT text, so subtitle mapping is refused for this container.
	"webm": {
		Format:       "webm",
		VideoCodec:   "libvpx-vp9",
		CRF:          32,
		BitRate:      "300k",
		Scale:        "640:480",
		AudioCodec:   "libopus",
		AudioBitrate: "64k",
	},
}

// Lookup resolves a format identifier to its encoding profile.
func Lookup(format string) (Profile, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	p, ok := profiles[normalized]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, format, strings.Join(Formats(), ", "))
	}
	return p, nil
}

// Supported reports whether the format identifier has a profile.
func Supported(format string) bool {
	_, ok := profiles[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// Formats returns the sorted list of supported format identifiers.
func Formats() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
