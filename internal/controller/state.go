package controller

import (
	"strings"
	"time"
)

// Phase represents the lifecycle of a conversion job.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseStarting      Phase = "starting"
	PhaseInspecting    Phase = "inspecting"
	PhaseConverting    Phase = "converting"
	PhaseConcatenating Phase = "concatenating"
	PhaseCompleted     Phase = "completed"
	PhaseError         Phase = "error"
	PhaseCancelled     Phase = "cancelled"
)

var allPhases = []Phase{
	PhaseIdle,
	PhaseStarting,
	PhaseInspecting,
	PhaseConverting,
	PhaseConcatenating,
	PhaseCompleted,
	PhaseError,
	PhaseCancelled,
}

var phaseSet = func() map[Phase]struct{} {
	set := make(map[Phase]struct{}, len(allPhases))
	for _, phase := range allPhases {
		set[phase] = struct{}{}
	}
	return set
}()

// ParsePhase converts a string into a known Phase.
func ParsePhase(value string) (Phase, bool) {
	normalized := Phase(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := phaseSet[normalized]
	return normalized, ok
}

// Terminal reports whether the phase ends a job. Terminal phases reset to
// idle when the next job is admitted.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseError, PhaseCancelled:
		return true
	default:
		return false
	}
}

// Active reports whether a job is currently in flight.
func (p Phase) Active() bool {
	return p != PhaseIdle && !p.Terminal()
}

// State is an immutable snapshot of the current job. The worker goroutine is
// its sole writer; readers always observe a fully applied transition, never a
// torn one.
type State struct {
	JobID      string  `json:"job_id,omitempty"`
	SourcePath string  `json:"source_path,omitempty"`
	Format     string  `json:"format,omitempty"`
	Phase      Phase   `json:"phase"`
	Progress   float64 `json:"progress"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
	// OutputFile is the final output path once known.
	OutputFile string `json:"output_file,omitempty"`
	// OutputSize is the final output size in bytes, set on completion.
	OutputSize int64 `json:"output_size,omitempty"`
	// OutputDuration is the container duration of the finished output in
	// seconds, best-effort, set on completion.
	OutputDuration float64   `json:"output_duration,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
