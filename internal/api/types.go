package api

import (
	"time"

	"platter/internal/controller"
)

// ConvertRequest asks the daemon to start a conversion job. Empty fields fall
// back to configured defaults.
type ConvertRequest struct {
	SourcePath  string `json:"source_path"`
	OutputDir   string `json:"output_dir,omitempty"`
	OutputName  string `json:"output_name,omitempty"`
	Format      string `json:"format,omitempty"`
	AudioTracks string `json:"audio_tracks,omitempty"`
	Subtitles   *bool  `json:"subtitles,omitempty"`
}

// ConvertResponse returns the admitted job's initial snapshot.
type ConvertResponse struct {
	Job controller.State `json:"job"`
}

// CancelResponse reports whether a job was cancelled and the snapshot after
// the request.
type CancelResponse struct {
	Cancelled bool             `json:"cancelled"`
	Job       controller.State `json:"job"`
}

// DependencyStatus mirrors one external binary check.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors one preflight environment check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse describes the daemon and its current job.
type StatusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Job           controller.State   `json:"job"`
	HistoryDBPath string             `json:"history_db_path,omitempty"`
	LockFilePath  string             `json:"lock_file_path,omitempty"`
	Dependencies  []DependencyStatus `json:"dependencies,omitempty"`
	Preflight     []CheckResult      `json:"preflight,omitempty"`
}

// Volume is one candidate source directory under the configured mount roots.
type Volume struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Structured bool   `json:"structured"`
}

// DrivesResponse lists candidate source volumes.
type DrivesResponse struct {
	Volumes []Volume `json:"volumes"`
}

// HistoryEntry is one recorded job outcome.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	JobID          string    `json:"job_id"`
	SourcePath     string    `json:"source_path,omitempty"`
	Format         string    `json:"format,omitempty"`
	Phase          string    `json:"phase"`
	Message        string    `json:"message,omitempty"`
	Error          string    `json:"error,omitempty"`
	OutputFile     string    `json:"output_file,omitempty"`
	OutputSize     int64     `json:"output_size,omitempty"`
	OutputDuration float64   `json:"output_duration,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

// HistoryResponse lists recorded outcomes, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
