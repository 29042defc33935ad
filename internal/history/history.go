// Package history keeps a SQLite ledger of sync runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/skillsync/internal/sqlutil"
	"github.com/aidanlsb/skillsync/internal/store"
)

// CurrentDBVersion is the current ledger schema version.
const CurrentDBVersion = 1

// DefaultRetention is the number of runs kept after each insert.
const DefaultRetention = 500

// Run is one ledger row.
type Run struct {
	ID            int64        `json:"id"`
	Status        store.Status `json:"status"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	FinishedAt    time.Time    `json:"finished_at"`
	DurationMS    int64        `json:"duration_ms"`
	Error         string       `json:"error,omitempty"`
	Warnings      int          `json:"warnings"`
	GlobalCount   int          `json:"global_count"`
	ProjectCount  int          `json:"project_count"`
	ConflictCount int          `json:"conflict_count"`
	ArchivedCount int          `json:"archived_count"`
}

// Ledger is the SQLite database handle.
type Ledger struct {
	db        *sql.DB
	retention int
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	l := &Ledger{db: db, retention: DefaultRetention}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// OpenInMemory opens an in-memory ledger (for testing).
func OpenInMemory() (*Ledger, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, retention: DefaultRetention}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// SetRetention changes how many runs are kept. Zero or less keeps everything.
func (l *Ledger) SetRetention(n int) {
	l.retention = n
}

func (l *Ledger) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT NOT NULL,
			started_at INTEGER,
			finished_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT,
			warnings INTEGER NOT NULL DEFAULT 0,
			global_count INTEGER NOT NULL DEFAULT 0,
			project_count INTEGER NOT NULL DEFAULT 0,
			conflict_count INTEGER NOT NULL DEFAULT 0,
			archived_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}

	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion),
	)
	return err
}

// RecordRun appends the outcome of a finished run and trims old rows.
func (l *Ledger) RecordRun(ctx context.Context, doc *store.Document) error {
	info := doc.Sync
	finished := doc.GeneratedAt
	if info.FinishedAt != nil {
		finished = *info.FinishedAt
	}

	var started sql.NullInt64
	if info.StartedAt != nil {
		started = sql.NullInt64{Int64: info.StartedAt.UnixMilli(), Valid: true}
	}
	var errText sql.NullString
	if info.Error != nil {
		errText = sql.NullString{String: *info.Error, Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (status, started_at, finished_at, duration_ms, error, warnings,
			global_count, project_count, conflict_count, archived_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(info.Status), started, finished.UnixMilli(), info.DurationMS, errText, len(info.Warnings),
		doc.Summary.GlobalCount, doc.Summary.ProjectCount, doc.Summary.ConflictCount, doc.Summary.ArchivedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if l.retention > 0 {
		_, err = l.db.ExecContext(ctx, `
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY id DESC LIMIT ?
			)`, l.retention)
		if err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}
	return nil
}

// Query filters ledger rows. Zero values match everything.
type Query struct {
	Limit    int
	Statuses []store.Status
	Since    time.Time // runs that finished at or after Since
}

// Recent returns up to limit runs, newest first, optionally filtered by status.
func (l *Ledger) Recent(ctx context.Context, limit int, statuses ...store.Status) ([]Run, error) {
	return l.Find(ctx, Query{Limit: limit, Statuses: statuses})
}

// Find returns the runs matching q, newest first.
func (l *Ledger) Find(ctx context.Context, q Query) ([]Run, error) {
	query := `
		SELECT id, status, started_at, finished_at, duration_ms, error, warnings,
			global_count, project_count, conflict_count, archived_count
		FROM runs`
	var (
		where []string
		args  []any
	)
	if len(q.Statuses) > 0 {
		placeholders, inArgs := sqlutil.InClause(q.Statuses)
		where = append(where, "status IN ("+placeholders+")")
		args = append(args, inArgs...)
	}
	if !q.Since.IsZero() {
		where = append(where, "finished_at >= ?")
		args = append(args, q.Since.UnixMilli())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := l.db.QueryContext(ctx, strings.TrimSpace(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	runs, err := sqlutil.ScanRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// LastSuccess returns the newest successful run, or nil.
func (l *Ledger) LastSuccess(ctx context.Context) (*Run, error) {
	runs, err := l.Recent(ctx, 1, store.StatusOK)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		r        Run
		status   string
		started  sql.NullInt64
		finished int64
		errText  sql.NullString
	)
	err := rows.Scan(&r.ID, &status, &started, &finished, &r.DurationMS, &errText, &r.Warnings,
		&r.GlobalCount, &r.ProjectCount, &r.ConflictCount, &r.ArchivedCount)
	if err != nil {
		return Run{}, err
	}
	r.Status = store.Status(status)
	if started.Valid {
		t := time.UnixMilli(started.Int64).UTC()
		r.StartedAt = &t
	}
	r.FinishedAt = time.UnixMilli(finished).UTC()
	r.Error = errText.String
	return r, nil
}
