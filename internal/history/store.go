package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"platter/internal/config"
	"platter/internal/controller"
)

// Store persists terminal job outcomes in SQLite. It satisfies
// controller.Recorder.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode    = 5
	busyRetryAttempts = 5
	busyRetryBackoff  = 25 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS job_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	format TEXT NOT NULL DEFAULT '',
	phase TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	output_file TEXT NOT NULL DEFAULT '',
	output_size INTEGER NOT NULL DEFAULT 0,
	output_duration REAL NOT NULL DEFAULT 0,
	finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_job_history_finished_at ON job_history(finished_at);
`

// Entry is one recorded job outcome.
type Entry struct {
	ID             int64
	JobID          string
	SourcePath     string
	Format         string
	Phase          string
	Message        string
	Error          string
	OutputFile     string
	OutputSize     int64
	OutputDuration float64
	FinishedAt     time.Time
}

// Open initializes or connects to the history database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one terminal job snapshot. Non-terminal snapshots are
// rejected; history holds outcomes, not transitions.
func (s *Store) Record(ctx context.Context, state controller.State) error {
	if !state.Phase.Terminal() {
		return fmt.Errorf("refusing to record non-terminal phase %q", state.Phase)
	}
	return s.withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO job_history
				(job_id, source_path, format, phase, message, error, output_file, output_size, output_duration, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			state.JobID,
			state.SourcePath,
			state.Format,
			string(state.Phase),
			state.Message,
			state.Error,
			state.OutputFile,
			state.OutputSize,
			state.OutputDuration,
			state.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

// List returns the most recent outcomes, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, job_id, source_path, format, phase, message, error, output_file, output_size, output_duration, finished_at
		FROM job_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var finished string
		if err := rows.Scan(
			&entry.ID,
			&entry.JobID,
			&entry.SourcePath,
			&entry.Format,
			&entry.Phase,
			&entry.Message,
			&entry.Error,
			&entry.OutputFile,
			&entry.OutputSize,
			&entry.OutputDuration,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, finished); parseErr == nil {
			entry.FinishedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

// Prune deletes everything but the newest keep entries.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	return s.withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM job_history WHERE id NOT IN
				(SELECT id FROM job_history ORDER BY id DESC LIMIT ?)`, keep)
		return err
	})
}

// withBusyRetry retries writes that lose the SQLite write lock. WAL mode plus
// busy_timeout covers most contention; this catches the remainder.
func (s *Store) withBusyRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}
		select {
		case <-time.After(busyRetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
