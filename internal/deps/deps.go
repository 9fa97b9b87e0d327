package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"platter/internal/config"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of one requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external binaries for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     Resolve(cfg.Engine.FFmpegBinary, "ffmpeg"),
			Description: "Required for transcoding and concatenation",
		},
		{
			Name:        "FFprobe",
			Command:     Resolve(cfg.Engine.FFprobeBinary, "ffprobe"),
			Description: "Required for stream inspection",
		},
	}
}

// Resolve prefers the configured binary path and falls back to the default
// command name for PATH lookup.
func Resolve(configured, fallback string) string {
	if cmd := strings.TrimSpace(configured); cmd != "" {
		return cmd
	}
	return fallback
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
		} else if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		} else {
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}
