package inspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"platter/internal/catalog"
	"platter/internal/media/ffprobe"
)

// ErrInspectionFailed reports that the engine's inspection pass exited
// non-zero or produced unparsable output. Inspection failure is non-fatal for
// the pipeline: callers fall back to FallbackTitleInfo and convert with
// default single-track settings.
var ErrInspectionFailed = errors.New("source inspection failed")

// Kind identifies the stream class.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
)

// Stream is one audio, video, or subtitle stream found on a title.
type Stream struct {
	Kind     Kind
	Index    int
	Codec    string
	Language string
	Title    string
	Channels int
	Width    int
	Height   int
}

// TitleInfo aggregates the sanitized display title and the ordered streams of
// each kind for one title. Built once per job; read-only afterwards.
type TitleInfo struct {
	Title        string
	Video        []Stream
	Audio        []Stream
	Subtitle     []Stream
	SegmentCount int
}

// FallbackTitle is substituted when no usable title can be derived.
const FallbackTitle = "DVD_Conversion"

// FallbackTitleInfo is the degraded TitleInfo used when inspection fails.
func FallbackTitleInfo(segmentCount int) TitleInfo {
	return TitleInfo{Title: FallbackTitle, SegmentCount: segmentCount}
}

// ProbeFunc runs the engine's inspection mode against one path.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Option configures the inspector.
type Option func(*Inspector)

// WithProbe injects a custom probe function (primarily for tests).
func WithProbe(fn ProbeFunc) Option {
	return func(i *Inspector) {
		if fn != nil {
			i.probe = fn
		}
	}
}

// Inspector derives TitleInfo from the first segment of a title.
type Inspector struct {
	binary string
	probe  ProbeFunc
}

// New constructs an inspector that invokes the given ffprobe binary.
func New(binary string, opts ...Option) *Inspector {
	inspector := &Inspector{binary: binary, probe: ffprobe.Inspect}
	for _, opt := range opts {
		opt(inspector)
	}
	return inspector
}

// Inspect probes the first segment only. Inspecting one segment keeps
// analysis bounded; all segments of a title group are assumed to share the
// same stream layout (a known limitation, not verified against later
// segments).
//
// On failure the returned TitleInfo is the fallback and the error wraps
// ErrInspectionFailed so callers can log and proceed.
func (i *Inspector) Inspect(ctx context.Context, sourcePath string, segments []catalog.Segment) (TitleInfo, error) {
	if len(segments) == 0 {
		return FallbackTitleInfo(0), fmt.Errorf("%w: no segments to inspect", ErrInspectionFailed)
	}

	result, err := i.probe(ctx, i.binary, segments[0].Path)
	if err != nil {
		return FallbackTitleInfo(len(segments)), fmt.Errorf("%w: %w", ErrInspectionFailed, err)
	}

	return buildTitleInfo(result, sourcePath, len(segments)), nil
}

func buildTitleInfo(result ffprobe.Result, sourcePath string, segmentCount int) TitleInfo {
	title := strings.TrimSpace(result.Format.Tags.Title)
	if title == "" {
		title = deriveTitle(sourcePath)
	}

	info := TitleInfo{
		Title:        SanitizeTitle(title),
		SegmentCount: segmentCount,
	}

	for _, stream := range result.StreamsOfType(string(KindVideo)) {
		info.Video = append(info.Video, Stream{
			Kind:   KindVideo,
			Index:  stream.Index,
			Codec:  stream.CodecName,
			Width:  stream.Width,
			Height: stream.Height,
		})
	}
	for _, stream := range result.StreamsOfType(string(KindAudio)) {
		n := len(info.Audio) + 1
		info.Audio = append(info.Audio, Stream{
			Kind:     KindAudio,
			Index:    stream.Index,
			Codec:    stream.CodecName,
			Language: defaultLanguage(stream.Tags.Language),
			Title:    defaultStreamTitle(stream.Tags.Title, "Audio", n),
			Channels: stream.Channels,
		})
	}
	for _, stream := range result.StreamsOfType(string(KindSubtitle)) {
		n := len(info.Subtitle) + 1
		info.Subtitle = append(info.Subtitle, Stream{
			Kind:     KindSubtitle,
			Index:    stream.Index,
			Codec:    stream.CodecName,
			Language: defaultLanguage(stream.Tags.Language),
			Title:    defaultStreamTitle(stream.Tags.Title, "Subtitle", n),
		})
	}
	return info
}

func defaultLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "unknown"
	}
	return language
}

func defaultStreamTitle(title, kind string, n int) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Sprintf("%s %d", kind, n)
	}
	return title
}

// SanitizeTitle strips every character outside [A-Za-z0-9 _-], trims trailing
// whitespace, and replaces spaces with underscores. An empty result yields
// FallbackTitle. The function is idempotent.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimRight(b.String(), " \t")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	if cleaned == "" {
		return FallbackTitle
	}
	return cleaned
}
