package state

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Verdict is the judgement recorded for one instance in a run.
type Verdict string

const (
	// VerdictPass means the driver succeeded and its state was accepted.
	VerdictPass Verdict = "pass"

	// VerdictError means the instance's error file is non-empty.
	VerdictError Verdict = "error"

	// VerdictMissing means no state file was produced.
	VerdictMissing Verdict = "missing"

	// VerdictInvalid means the state file exists but was rejected.
	VerdictInvalid Verdict = "invalid"
)

// ValidVerdicts contains all valid verdict values.
var ValidVerdicts = []Verdict{
	VerdictPass,
	VerdictError,
	VerdictMissing,
	VerdictInvalid,
}

// IsValidVerdict returns true if v is a valid verdict.
func IsValidVerdict(v Verdict) bool {
	for _, valid := range ValidVerdicts {
		if v == valid {
			return true
		}
	}
	return false
}

// Result is the recorded outcome of one instance within a run.
type Result struct {
	RunID      string
	Instance   string // compiler!subject
	Backend    string
	Compiler   string
	Subject    string
	ExitCode   int
	HasErrors  bool
	Verdict    Verdict
	Duration   time.Duration
	RecordedAt time.Time
}

// RecordResult inserts or replaces the result for an instance in a run.
func (db *DB) RecordResult(res *Result) error {
	if !IsValidVerdict(res.Verdict) {
		return fmt.Errorf("%w: verdict %s", ErrInvalidStatus, res.Verdict)
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO results (
			run_id, instance, backend, compiler, subject,
			exit_code, has_errors, verdict, duration_ms, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Instance,
		res.Backend,
		res.Compiler,
		res.Subject,
		res.ExitCode,
		res.HasErrors,
		string(res.Verdict),
		res.Duration.Milliseconds(),
		formatTime(res.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// ResultOptions specifies filters for listing results.
type ResultOptions struct {
	RunID    string    // Filter by run (exact match)
	Backend  string    // Filter by backend ID
	Compiler string    // Filter by compiler ID
	Subject  string    // Filter by subject name
	Verdicts []Verdict // Filter by verdict (any of these)
}

// where builds the WHERE clause and arguments for opts.
func (opts ResultOptions) where() (string, []any) {
	var conditions []string
	var args []any

	if opts.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if opts.Backend != "" {
		conditions = append(conditions, "backend = ?")
		args = append(args, opts.Backend)
	}
	if opts.Compiler != "" {
		conditions = append(conditions, "compiler = ?")
		args = append(args, opts.Compiler)
	}
	if opts.Subject != "" {
		conditions = append(conditions, "subject = ?")
		args = append(args, opts.Subject)
	}
	if len(opts.Verdicts) > 0 {
		placeholders := make([]string, len(opts.Verdicts))
		for i, v := range opts.Verdicts {
			placeholders[i] = "?"
			args = append(args, string(v))
		}
		conditions = append(conditions, fmt.Sprintf("verdict IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListResults returns results matching opts, ordered by backend, compiler
// and subject.
func (db *DB) ListResults(opts ResultOptions) ([]*Result, error) {
	where, args := opts.where()
	query := `
		SELECT run_id, instance, backend, compiler, subject,
		       exit_code, has_errors, verdict, duration_ms, recorded_at
		FROM results` + where + " ORDER BY backend, compiler, subject"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// CountResults returns the number of results matching opts.
func (db *DB) CountResults(opts ResultOptions) (int, error) {
	where, args := opts.where()

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM results"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

// scanResult scans a row into a Result struct.
func scanResult(s scanner) (*Result, error) {
	var res Result
	var hasErrors sql.NullBool
	var durationMS int64
	var recordedAt string

	err := s.Scan(
		&res.RunID,
		&res.Instance,
		&res.Backend,
		&res.Compiler,
		&res.Subject,
		&res.ExitCode,
		&hasErrors,
		&res.Verdict,
		&durationMS,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}

	res.HasErrors = hasErrors.Bool
	res.Duration = time.Duration(durationMS) * time.Millisecond
	res.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
	}

	return &res, nil
}
