package state

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus represents the state of a recorded run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	RunStatusAborted RunStatus = "aborted"
)

// ValidRunStatuses contains all valid run status values.
var ValidRunStatuses = []RunStatus{
	RunStatusRunning,
	RunStatusPassed,
	RunStatusFailed,
	RunStatusAborted,
}

// IsValidRunStatus returns true if s is a valid run status.
func IsValidRunStatus(s RunStatus) bool {
	for _, valid := range ValidRunStatuses {
		if s == valid {
			return true
		}
	}
	return false
}

// Run is one invocation of the harness over a test matrix.
type Run struct {
	ID         string    // 32 hex chars
	StartedAt  time.Time // When the run started
	FinishedAt time.Time // Zero while running
	Status     RunStatus
	OutputDir  string // Root output directory of the run
	Driver     string // Driver template used
}

var (
	// ErrRunNotFound is returned when a run with the given ID does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousPrefix is returned when an ID prefix matches multiple runs.
	ErrAmbiguousPrefix = errors.New("ambiguous run ID prefix")

	// ErrInvalidPrefix is returned when an ID prefix contains non-hex characters.
	ErrInvalidPrefix = errors.New("invalid ID prefix: must contain only hexadecimal characters")

	// ErrInvalidStatus is returned when an invalid status is provided.
	ErrInvalidStatus = errors.New("invalid status")
)

// AmbiguousPrefixError is returned when an ID prefix matches multiple runs.
// It includes the matching runs for better error messages.
type AmbiguousPrefixError struct {
	Prefix  string
	Matches []*Run
}

func (e *AmbiguousPrefixError) Error() string {
	return fmt.Sprintf("%s: '%s' matches %d runs", ErrAmbiguousPrefix.Error(), e.Prefix, len(e.Matches))
}

func (e *AmbiguousPrefixError) Unwrap() error {
	return ErrAmbiguousPrefix
}

// isHexString returns true if s contains only hexadecimal characters.
func isHexString(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// CreateRun inserts a new run.
func (db *DB) CreateRun(run *Run) error {
	if !IsValidRunStatus(run.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, run.Status)
	}

	_, err := db.Exec(`
		INSERT INTO runs (id, started_at, finished_at, status, output_dir, driver)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		nullTime(run.FinishedAt),
		string(run.Status),
		run.OutputDir,
		run.Driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun sets the final status and finish time of a run.
func (db *DB) FinishRun(id string, status RunStatus, finishedAt time.Time) error {
	if !IsValidRunStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	result, err := db.Exec(
		"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?",
		string(status), formatTime(finishedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by full ID.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, started_at, finished_at, status, output_dir, driver
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRunByPrefix retrieves a run by ID prefix.
// Returns ErrRunNotFound if no match, an *AmbiguousPrefixError if several
// match, or ErrInvalidPrefix if the prefix contains non-hex characters.
func (db *DB) GetRunByPrefix(prefix string) (*Run, error) {
	if prefix == "" || !isHexString(prefix) {
		return nil, ErrInvalidPrefix
	}

	rows, err := db.Query(`
		SELECT id, started_at, finished_at, status, output_dir, driver
		FROM runs WHERE id LIKE ? || '%'`, strings.ToLower(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	switch len(runs) {
	case 0:
		return nil, ErrRunNotFound
	case 1:
		return runs[0], nil
	default:
		return nil, &AmbiguousPrefixError{Prefix: prefix, Matches: runs}
	}
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns all runs.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, status, output_dir, driver
		FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a row into a Run struct.
func scanRun(s scanner) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	err := s.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.Status,
		&run.OutputDir,
		&run.Driver,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt, err = parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
	}

	return &run, nil
}

// timeLayout is RFC 3339 with fixed-width nanoseconds, so stored timestamps
// sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullTime converts a zero time to NULL for optional columns.
func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
