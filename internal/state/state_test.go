package state

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// openTestDB creates an in-memory database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestRun inserts a running run with the given ID.
func createTestRun(t *testing.T, db *DB, id string, startedAt time.Time) *Run {
	t.Helper()
	run := &Run{
		ID:        id,
		StartedAt: startedAt,
		Status:    RunStatusRunning,
		OutputDir: "/tmp/out",
		Driver:    "drive {backend} {compiler} {subject_path}",
	}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun(%s) failed: %v", id, err)
	}
	return run
}

func TestOpen(t *testing.T) {
	t.Run("in-memory database", func(t *testing.T) {
		db, err := Open(":memory:")
		if err != nil {
			t.Fatalf("Open(:memory:) failed: %v", err)
		}
		defer db.Close()

		if db.Path() != ":memory:" {
			t.Errorf("Path() = %q, want %q", db.Path(), ":memory:")
		}
	})

	t.Run("temp file database", func(t *testing.T) {
		path := t.TempDir() + "/test.db"
		db, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", path, err)
		}
		defer db.Close()

		if db.Path() != path {
			t.Errorf("Path() = %q, want %q", db.Path(), path)
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path := t.TempDir() + "/nested/dirs/test.db"
		db, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", path, err)
		}
		defer db.Close()
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		path := t.TempDir() + "/test.db"
		db, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", path, err)
		}
		createTestRun(t, db, "aaaa0000000000000000000000000000", time.Now())
		db.Close()

		db, err = Open(path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer db.Close()
		if _, err := db.GetRun("aaaa0000000000000000000000000000"); err != nil {
			t.Errorf("GetRun() after reopen failed: %v", err)
		}
	})
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath() failed: %v", err)
	}
	if path != "/xdg/data/actrun/state.db" {
		t.Errorf("DefaultDBPath() = %q", path)
	}
}

func TestMigrations(t *testing.T) {
	db := openTestDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() failed: %v", err)
	}

	expectedVersion := len(migrations)
	if version != expectedVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, expectedVersion)
	}

	// Verify both tables exist with expected columns
	_, err = db.Exec(`
		INSERT INTO runs (id, started_at, status, output_dir, driver)
		VALUES ('r1', '2024-01-01T00:00:00.000000000Z', 'running', '/out', 'true')
	`)
	if err != nil {
		t.Errorf("failed to insert into runs table: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO results (run_id, instance, backend, compiler, subject, exit_code,
			has_errors, verdict, duration_ms, recorded_at)
		VALUES ('r1', 'gcc!sb', 'x86', 'gcc', 'sb', 0, 0, 'pass', 12, '2024-01-01T00:00:00.000000000Z')
	`)
	if err != nil {
		t.Errorf("failed to insert into results table: %v", err)
	}
}

func TestRunCRUD(t *testing.T) {
	db := openTestDB(t)

	id, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID() failed: %v", err)
	}
	started := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	createTestRun(t, db, id, started)

	t.Run("GetRun", func(t *testing.T) {
		got, err := db.GetRun(id)
		if err != nil {
			t.Fatalf("GetRun() failed: %v", err)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
		}
		if !got.FinishedAt.IsZero() {
			t.Errorf("FinishedAt = %v, want zero", got.FinishedAt)
		}
		if got.Status != RunStatusRunning {
			t.Errorf("Status = %q, want %q", got.Status, RunStatusRunning)
		}
		if got.Driver != "drive {backend} {compiler} {subject_path}" {
			t.Errorf("Driver = %q", got.Driver)
		}
	})

	t.Run("FinishRun", func(t *testing.T) {
		finished := started.Add(90 * time.Second)
		if err := db.FinishRun(id, RunStatusFailed, finished); err != nil {
			t.Fatalf("FinishRun() failed: %v", err)
		}
		got, err := db.GetRun(id)
		if err != nil {
			t.Fatalf("GetRun() failed: %v", err)
		}
		if got.Status != RunStatusFailed {
			t.Errorf("Status = %q, want %q", got.Status, RunStatusFailed)
		}
		if !got.FinishedAt.Equal(finished) {
			t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
		}
	})

	t.Run("FinishRun unknown", func(t *testing.T) {
		err := db.FinishRun("nonexistent", RunStatusPassed, time.Now())
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("FinishRun(nonexistent) error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("GetRun unknown", func(t *testing.T) {
		_, err := db.GetRun("nonexistent")
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("GetRun(nonexistent) error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		err := db.CreateRun(&Run{ID: id, StartedAt: time.Now(), Status: RunStatusRunning})
		if err == nil {
			t.Error("CreateRun() with duplicate ID should fail")
		}
	})
}

func TestRunStatusValidation(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		status  RunStatus
		wantErr bool
	}{
		{RunStatusRunning, false},
		{RunStatusPassed, false},
		{RunStatusFailed, false},
		{RunStatusAborted, false},
		{"finished", true},
		{"", true},
	}

	for i, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			run := &Run{
				ID:        testID(i),
				StartedAt: time.Now(),
				Status:    tt.status,
			}
			err := db.CreateRun(run)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Errorf("CreateRun() error = %v, want ErrInvalidStatus", err)
				}
				return
			}
			if err != nil {
				t.Errorf("CreateRun() failed: %v", err)
			}
		})
	}

	t.Run("FinishRun rejects invalid status", func(t *testing.T) {
		err := db.FinishRun(testID(0), "done", time.Now())
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("FinishRun() error = %v, want ErrInvalidStatus", err)
		}
	})
}

// testID returns a deterministic 32-char hex ID.
func testID(n int) string {
	const hex = "0123456789abcdef"
	id := []byte("00000000000000000000000000000000")
	id[len(id)-1] = hex[n%16]
	id[len(id)-2] = hex[(n/16)%16]
	return string(id)
}

func TestGetRunByPrefix(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	createTestRun(t, db, "abc12300000000000000000000000000", now)
	createTestRun(t, db, "abc45600000000000000000000000000", now)
	createTestRun(t, db, "def00000000000000000000000000000", now)

	t.Run("unique prefix", func(t *testing.T) {
		got, err := db.GetRunByPrefix("def")
		if err != nil {
			t.Fatalf("GetRunByPrefix() failed: %v", err)
		}
		if got.ID != "def00000000000000000000000000000" {
			t.Errorf("ID = %q", got.ID)
		}
	})

	t.Run("uppercase prefix", func(t *testing.T) {
		got, err := db.GetRunByPrefix("ABC1")
		if err != nil {
			t.Fatalf("GetRunByPrefix() failed: %v", err)
		}
		if got.ID != "abc12300000000000000000000000000" {
			t.Errorf("ID = %q", got.ID)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := db.GetRunByPrefix("abc")
		if !errors.Is(err, ErrAmbiguousPrefix) {
			t.Fatalf("error = %v, want ErrAmbiguousPrefix", err)
		}
		var ambErr *AmbiguousPrefixError
		if !errors.As(err, &ambErr) {
			t.Fatalf("error is not *AmbiguousPrefixError: %T", err)
		}
		if len(ambErr.Matches) != 2 {
			t.Errorf("Matches = %d, want 2", len(ambErr.Matches))
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := db.GetRunByPrefix("fff")
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("error = %v, want ErrRunNotFound", err)
		}
	})

	t.Run("invalid prefix", func(t *testing.T) {
		for _, prefix := range []string{"", "xyz", "abc%", "ab_"} {
			_, err := db.GetRunByPrefix(prefix)
			if !errors.Is(err, ErrInvalidPrefix) {
				t.Errorf("GetRunByPrefix(%q) error = %v, want ErrInvalidPrefix", prefix, err)
			}
		}
	})
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Timestamps whose RFC 3339 forms would misorder without fixed-width
	// fractional seconds.
	createTestRun(t, db, testID(1), base)
	createTestRun(t, db, testID(2), base.Add(500*time.Millisecond))
	createTestRun(t, db, testID(3), base.Add(time.Second))

	t.Run("newest first", func(t *testing.T) {
		runs, err := db.ListRuns(0)
		if err != nil {
			t.Fatalf("ListRuns() failed: %v", err)
		}
		want := []string{testID(3), testID(2), testID(1)}
		if len(runs) != len(want) {
			t.Fatalf("ListRuns() returned %d runs, want %d", len(runs), len(want))
		}
		for i, run := range runs {
			if run.ID != want[i] {
				t.Errorf("runs[%d].ID = %q, want %q", i, run.ID, want[i])
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := db.ListRuns(2)
		if err != nil {
			t.Fatalf("ListRuns(2) failed: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("ListRuns(2) returned %d runs", len(runs))
		}
	})
}

func TestResults(t *testing.T) {
	db := openTestDB(t)
	runID := testID(7)
	createTestRun(t, db, runID, time.Now())
	recorded := time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)

	results := []*Result{
		{Instance: "gcc!sb", Backend: "x86", Compiler: "gcc", Subject: "sb", Verdict: VerdictPass, Duration: 1500 * time.Millisecond},
		{Instance: "gcc!mp", Backend: "x86", Compiler: "gcc", Subject: "mp", ExitCode: 1, HasErrors: true, Verdict: VerdictError},
		{Instance: "clang!sb", Backend: "x86", Compiler: "clang", Subject: "sb", Verdict: VerdictMissing},
		{Instance: "gcc!sb", Backend: "arm", Compiler: "gcc", Subject: "sb", Verdict: VerdictInvalid},
	}
	for _, res := range results {
		res.RunID = runID
		res.RecordedAt = recorded
		if err := db.RecordResult(res); err != nil {
			t.Fatalf("RecordResult(%s) failed: %v", res.Instance, err)
		}
	}

	t.Run("round trip", func(t *testing.T) {
		got, err := db.ListResults(ResultOptions{RunID: runID, Backend: "x86", Subject: "mp"})
		if err != nil {
			t.Fatalf("ListResults() failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("ListResults() returned %d results, want 1", len(got))
		}
		r := got[0]
		if r.ExitCode != 1 || !r.HasErrors || r.Verdict != VerdictError {
			t.Errorf("result = %+v", r)
		}
		if !r.RecordedAt.Equal(recorded) {
			t.Errorf("RecordedAt = %v, want %v", r.RecordedAt, recorded)
		}
	})

	t.Run("ordering", func(t *testing.T) {
		got, err := db.ListResults(ResultOptions{RunID: runID})
		if err != nil {
			t.Fatalf("ListResults() failed: %v", err)
		}
		var order []string
		for _, r := range got {
			order = append(order, r.Backend+"/"+r.Instance)
		}
		want := []string{"arm/gcc!sb", "x86/clang!sb", "x86/gcc!mp", "x86/gcc!sb"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("order = %v, want %v", order, want)
				break
			}
		}
	})

	t.Run("duration in milliseconds", func(t *testing.T) {
		got, err := db.ListResults(ResultOptions{RunID: runID, Verdicts: []Verdict{VerdictPass}})
		if err != nil {
			t.Fatalf("ListResults() failed: %v", err)
		}
		if len(got) != 1 || got[0].Duration != 1500*time.Millisecond {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("replace", func(t *testing.T) {
		res := *results[2]
		res.Verdict = VerdictPass
		if err := db.RecordResult(&res); err != nil {
			t.Fatalf("RecordResult() failed: %v", err)
		}
		count, err := db.CountResults(ResultOptions{RunID: runID})
		if err != nil {
			t.Fatalf("CountResults() failed: %v", err)
		}
		if count != 4 {
			t.Errorf("CountResults() = %d, want 4", count)
		}
	})

	t.Run("invalid verdict", func(t *testing.T) {
		res := *results[0]
		res.Verdict = "flaky"
		if err := db.RecordResult(&res); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("RecordResult() error = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestCountResults(t *testing.T) {
	db := openTestDB(t)
	runID := testID(9)
	createTestRun(t, db, runID, time.Now())

	verdicts := []Verdict{VerdictPass, VerdictPass, VerdictError, VerdictMissing, VerdictInvalid}
	for i, v := range verdicts {
		err := db.RecordResult(&Result{
			RunID:      runID,
			Instance:   "gcc!s" + string(rune('a'+i)),
			Backend:    "x86",
			Compiler:   "gcc",
			Subject:    "s" + string(rune('a'+i)),
			Verdict:    v,
			RecordedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("RecordResult() failed: %v", err)
		}
	}

	tests := []struct {
		name string
		opts ResultOptions
		want int
	}{
		{"all", ResultOptions{}, 5},
		{"by run", ResultOptions{RunID: runID}, 5},
		{"other run", ResultOptions{RunID: "nope"}, 0},
		{"pass", ResultOptions{Verdicts: []Verdict{VerdictPass}}, 2},
		{"failures", ResultOptions{Verdicts: []Verdict{VerdictError, VerdictMissing, VerdictInvalid}}, 3},
		{"by compiler", ResultOptions{Compiler: "clang"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.CountResults(tt.opts)
			if err != nil {
				t.Fatalf("CountResults() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountResults() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"0123456789abcdef0123456789abcdef", "0123456789ab"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortID(tt.id); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestConcurrentReads(t *testing.T) {
	db := openTestDB(t)
	id := testID(3)
	createTestRun(t, db, id, time.Now())

	// Perform concurrent reads, collecting errors via channel
	// (t.Errorf is not safe to call from goroutines)
	const numGoroutines = 10
	errs := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			_, err := db.GetRun(id)
			errs <- err
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent GetRun() failed: %v", err)
		}
	}
}

func TestDSNFor(t *testing.T) {
	if got := dsnFor(":memory:"); got != "file::memory:?cache=shared" {
		t.Errorf("dsnFor(:memory:) = %q", got)
	}
	got := dsnFor("/tmp/state.db")
	if !strings.HasPrefix(got, "file:/tmp/state.db?") || !strings.Contains(got, "journal_mode(WAL)") {
		t.Errorf("dsnFor(file) = %q", got)
	}
}
