package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"platter/internal/catalog"
	"platter/internal/inspect"
	"platter/internal/profile"
)

// ErrProfileIncompatible reports that the chosen profile cannot carry the
// requested subtitle streams in its target container.
var ErrProfileIncompatible = errors.New("profile incompatible with requested streams")

// AudioMode selects which audio tracks are mapped into the output.
type AudioMode string

const (
	AudioAll   AudioMode = "all"
	AudioFirst AudioMode = "first"
)

// ParseAudioMode validates an audio-track mode string.
func ParseAudioMode(value string) (AudioMode, error) {
	switch AudioMode(strings.ToLower(strings.TrimSpace(value))) {
	case AudioAll:
		return AudioAll, nil
	case AudioFirst:
		return AudioFirst, nil
	default:
		return "", fmt.Errorf("audio mode must be %q or %q, got %q", AudioAll, AudioFirst, value)
	}
}

// Invocation is one fully assembled engine command.
type Invocation struct {
	Binary string
	Args   []string
	// Output is the file this invocation produces.
	Output string
}

// Plan holds the ordered invocations realizing one conversion job: one
// Phase-A transcode per segment, then one Phase-B concatenation.
type Plan struct {
	Segments []Invocation
	Concat   Invocation
	// ManifestPath is the concat manifest consumed by the Phase-B
	// invocation. The controller writes it just before Phase B runs.
	ManifestPath string
}

// TempFiles lists every scratch file the plan touches, manifest included.
// All of them must be removed on every job exit path.
func (p Plan) TempFiles() []string {
	files := make([]string, 0, len(p.Segments)+1)
	for _, inv := range p.Segments {
		files = append(files, inv.Output)
	}
	files = append(files, p.ManifestPath)
	return files
}

// Request carries everything the builder needs for one job.
type Request struct {
	JobID      string
	Segments   []catalog.Segment
	Title      inspect.TitleInfo
	Profile    profile.Profile
	AudioMode  AudioMode
	Subtitles  bool
	TempDir    string
	OutputPath string
	Binary     string
}

// BuildPlan produces the two-phase invocation sequence for one job.
//
// Direct single-pass concatenation of raw program-stream segments is
// unreliable with some encoders, so every segment is re-encoded alone
// (Phase A) and the encoded pieces are stream-copied together through the
// concat demuxer (Phase B). Segment order from the catalog is preserved as
// invocation order.
func BuildPlan(req Request) (Plan, error) {
	if len(req.Segments) == 0 {
		return Plan{}, errors.New("no segments to convert")
	}
	if req.OutputPath == "" {
		return Plan{}, errors.New("output path required")
	}
	if req.Subtitles && len(req.Title.Subtitle) > 0 && req.Profile.SubtitleCodec == "" {
		return Plan{}, fmt.Errorf("%w: container %q cannot carry text subtitles", ErrProfileIncompatible, req.Profile.Format)
	}

	binary := req.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	plan := Plan{
		ManifestPath: filepath.Join(req.TempDir, fmt.Sprintf("%s-concat.txt", req.JobID)),
	}

	for i, segment := range req.Segments {
		output := filepath.Join(req.TempDir, fmt.Sprintf("%s-seg-%03d.%s", req.JobID, i+1, req.Profile.Format))
		plan.Segments = append(plan.Segments, Invocation{
			Binary: binary,
			Args:   segmentArgs(segment.Path, output, req),
			Output: output,
		})
	}

	plan.Concat = Invocation{
		Binary: binary,
		Args:   concatArgs(plan.ManifestPath, req.OutputPath, req.Profile),
		Output: req.OutputPath,
	}
	return plan, nil
}

// segmentArgs assembles one Phase-A transcode invocation.
func segmentArgs(input, output string, req Request) []string {
	p := req.Profile
	args := []string{"-i", input}

	args = append(args, "-c:v", p.VideoCodec)
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	args = append(args, "-crf", fmt.Sprintf("%d", p.CRF))
	if p.BitRate != "" {
		args = append(args, "-b:v", p.BitRate)
	}
	if p.MaxRate != "" {
		args = append(args, "-maxrate", p.MaxRate, "-bufsize", p.BufSize)
	}
	if p.VideoProfile != "" {
		args = append(args, "-profile:v", p.VideoProfile, "-level", p.Level)
	}
	if p.Scale != "" {
		args = append(args, "-vf", "scale="+p.Scale)
	}

	args = append(args, audioArgs(req)...)
	args = append(args, subtitleArgs(req)...)

	if p.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-y", output)
	return args
}

// audioArgs maps audio tracks per the stream-mapping policy: mode "all" maps
// video stream 0 plus every detected audio stream with per-stream codec,
// bitrate, and metadata; mode "first" (or no detected streams) encodes only
// the default track.
func audioArgs(req Request) []string {
	p := req.Profile
	if req.AudioMode != AudioAll || len(req.Title.Audio) == 0 {
		return []string{"-c:a", p.AudioCodec, "-b:a", p.AudioBitrate}
	}

	args := []string{"-map", "0:v:0"}
	for i, stream := range req.Title.Audio {
		args = append(args,
			"-map", fmt.Sprintf("0:a:%d", i),
			fmt.Sprintf("-c:a:%d", i), p.AudioCodec,
			fmt.Sprintf("-b:a:%d", i), p.AudioBitrate,
		)
		if stream.Language != "unknown" {
			args = append(args,
				fmt.Sprintf("-metadata:s:a:%d", i), "language="+stream.Language,
				fmt.Sprintf("-metadata:s:a:%d", i), "title="+stream.Title,
			)
		}
	}
	return args
}

func subtitleArgs(req Request) []string {
	if !req.Subtitles || len(req.Title.Subtitle) == 0 {
		return nil
	}
	var args []string
	for i, stream := range req.Title.Subtitle {
		args = append(args,
			"-map", fmt.Sprintf("0:s:%d", i),
			fmt.Sprintf("-c:s:%d", i), req.Profile.SubtitleCodec,
		)
		if stream.Language != "unknown" {
			args = append(args,
				fmt.Sprintf("-metadata:s:s:%d", i), "language="+stream.Language,
				fmt.Sprintf("-metadata:s:s:%d", i), "title="+stream.Title,
			)
		}
	}
	return args
}

// concatArgs assembles the Phase-B concatenation invocation: the concat
// demuxer over the manifest with stream copy, no re-encode.
func concatArgs(manifest, output string, p profile.Profile) []string {
	args := []string{"-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy"}
	if p.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-y", output)
	return args
}

// WriteManifest writes the concat manifest listing the Phase-A outputs in
// order, one `file '<absolute-path>'` line each.
func WriteManifest(path string, outputs []string) error {
	var b strings.Builder
	for _, output := range outputs {
		abs, err := filepath.Abs(output)
		if err != nil {
			return fmt.Errorf("resolve manifest entry: %w", err)
		}
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	return nil
}
