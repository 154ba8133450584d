// Package store persists pipeline results in SQLite so batch runs can be
// resumed and ranked offline. One row per bug, one row per candidate; the
// full candidate is kept as a JSON blob next to the columns queries filter
// on.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS bugs (
	id          TEXT PRIMARY KEY,
	project     TEXT NOT NULL,
	bug_number  TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	candidates  INTEGER NOT NULL DEFAULT 0,
	brts        INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS candidates (
	id             TEXT PRIMARY KEY,
	bug_id         TEXT NOT NULL,
	sample         INTEGER NOT NULL,
	classification TEXT NOT NULL DEFAULT '',
	drop_stage     TEXT NOT NULL DEFAULT '',
	data           TEXT NOT NULL,
	FOREIGN KEY (bug_id) REFERENCES bugs (id)
);

CREATE INDEX IF NOT EXISTS idx_candidates_bug ON candidates (bug_id, sample);
`

// Store is a SQLite-backed result store. Safe for concurrent use; writes are
// serialized through a single connection.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open initializes the database at path, creating parent directories and the
// schema as needed. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveBug records the bug report before its candidates start arriving. Saving
// the same bug twice resets its summary counts.
func (s *Store) SaveBug(report types.BugReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO bugs (id, project, bug_number, title, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			candidates = 0, brts = 0, duration_ms = 0, error = '',
			finished_at = NULL`,
		report.ID, report.Project, report.BugNumber, report.Title, report.Description)
	if err != nil {
		return fmt.Errorf("save bug %s: %w", report.ID, err)
	}
	return nil
}

// SaveCandidate upserts one fully-processed candidate.
func (s *Store) SaveCandidate(c *types.Candidate) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate %s: %w", c.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO candidates (id, bug_id, sample, classification, drop_stage, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			classification = excluded.classification,
			drop_stage     = excluded.drop_stage,
			data           = excluded.data`,
		c.ID, c.BugID, c.Sample, string(c.Classification), string(c.DropStage), string(data))
	if err != nil {
		return fmt.Errorf("save candidate %s: %w", c.ID, err)
	}
	return nil
}

// FinishBug stamps the bug's summary once all its candidates are stored. A
// bug counts as done only after this runs, so interrupted runs are retried.
func (s *Store) FinishBug(bugID string, candidates, brts int, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`
		UPDATE bugs SET candidates = ?, brts = ?, duration_ms = ?, finished_at = ?
		WHERE id = ?`,
		candidates, brts, duration.Milliseconds(), time.Now().UTC(), bugID)
	if err != nil {
		return fmt.Errorf("finish bug %s: %w", bugID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("finish bug %s: bug not saved", bugID)
	}
	return nil
}

// FailBug records a bug whose run could not complete. The bug counts as
// finished so a resumed batch moves past it instead of retrying.
func (s *Store) FailBug(report types.BugReport, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO bugs (id, project, bug_number, title, description, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			error = excluded.error, finished_at = excluded.finished_at`,
		report.ID, report.Project, report.BugNumber, report.Title, report.Description,
		errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("fail bug %s: %w", report.ID, err)
	}
	return nil
}

// HasBug reports whether the bug has a completed run.
func (s *Store) HasBug(bugID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM bugs WHERE id = ? AND finished_at IS NOT NULL`,
		bugID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query bug %s: %w", bugID, err)
	}
	return n > 0, nil
}

// BugSummary is the per-bug rollup kept in the bugs table.
type BugSummary struct {
	Report     types.BugReport
	Candidates int
	BRTs       int
	DurationMs int64
	Error      string // non-empty when the run failed
	Finished   bool
}

// GetBug returns one stored bug's summary, or sql.ErrNoRows when absent.
func (s *Store) GetBug(bugID string) (BugSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b BugSummary
	err := s.db.QueryRow(`
		SELECT id, project, bug_number, title, description, candidates, brts,
		       duration_ms, error, finished_at IS NOT NULL
		FROM bugs WHERE id = ?`, bugID).
		Scan(&b.Report.ID, &b.Report.Project, &b.Report.BugNumber,
			&b.Report.Title, &b.Report.Description,
			&b.Candidates, &b.BRTs, &b.DurationMs, &b.Error, &b.Finished)
	if err != nil {
		return BugSummary{}, fmt.Errorf("get bug %s: %w", bugID, err)
	}
	return b, nil
}

// ListBugs returns every stored bug ordered by id.
func (s *Store) ListBugs() ([]BugSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT id, project, bug_number, title, description, candidates, brts,
		       duration_ms, error, finished_at IS NOT NULL
		FROM bugs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	defer rows.Close()

	var out []BugSummary
	for rows.Next() {
		var b BugSummary
		if err := rows.Scan(&b.Report.ID, &b.Report.Project, &b.Report.BugNumber,
			&b.Report.Title, &b.Report.Description,
			&b.Candidates, &b.BRTs, &b.DurationMs, &b.Error, &b.Finished); err != nil {
			return nil, fmt.Errorf("scan bug: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListCandidates returns every candidate stored for a bug, in sample order.
func (s *Store) ListCandidates(bugID string) ([]*types.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT data FROM candidates WHERE bug_id = ? ORDER BY sample`, bugID)
	if err != nil {
		return nil, fmt.Errorf("list candidates for %s: %w", bugID, err)
	}
	defer rows.Close()

	var out []*types.Candidate
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		var c types.Candidate
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("unmarshal candidate: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
