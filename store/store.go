package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/randalmurphal/reviewflow/notify"
	"github.com/randalmurphal/reviewflow/workflow"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// openDB is replaced in tests.
var openDB = sql.Open

const timeLayout = time.RFC3339Nano

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	RunID      string
	Status     workflow.Status
	Repository string
	TicketID   string
	Score      int
	Phase      string
	LastError  string
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// ListOptions filters List.
type ListOptions struct {
	Status workflow.Status // empty matches every status
	Limit  int             // zero means 50
}

// SQLite stores runs in a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// One connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			repository TEXT NOT NULL DEFAULT '',
			ticket_id  TEXT NOT NULL DEFAULT '',
			score      INTEGER NOT NULL DEFAULT 0,
			phase      TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			state_json TEXT NOT NULL,
			started_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_updated ON runs(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

		CREATE TABLE IF NOT EXISTS run_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			type       TEXT NOT NULL,
			step       TEXT NOT NULL DEFAULT '',
			message    TEXT NOT NULL,
			severity   TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces the record for state.RunID.
func (s *SQLite) Save(ctx context.Context, state workflow.State) error {
	if state.RunID == "" {
		return errors.New("store: run ID is required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}

	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	started := state.StartedAt
	if started.IsZero() {
		started = updated
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, status, repository, ticket_id, score, phase, last_error, state_json, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			repository = excluded.repository,
			ticket_id = excluded.ticket_id,
			score = excluded.score,
			phase = excluded.phase,
			last_error = excluded.last_error,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		state.RunID, string(state.Status), state.RepositoryRef, state.TicketID, state.Score,
		state.Phase, state.LastError, string(data),
		started.UTC().Format(timeLayout), updated.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: save run %s: %w", state.RunID, err)
	}
	return nil
}

// Load returns the stored State for runID.
func (s *SQLite) Load(ctx context.Context, runID string) (workflow.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.State{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return workflow.State{}, fmt.Errorf("store: load run %s: %w", runID, err)
	}

	var state workflow.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return workflow.State{}, fmt.Errorf("store: decode run %s: %w", runID, err)
	}
	return state, nil
}

// Resolve expands a unique run ID prefix to the full ID.
func (s *SQLite) Resolve(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM runs WHERE run_id LIKE ? ESCAPE '\' ORDER BY run_id LIMIT 2`,
		escapeLike(prefix)+"%")
	if err != nil {
		return "", fmt.Errorf("store: resolve %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		for _, id := range ids {
			if id == prefix {
				return id, nil
			}
		}
		return "", fmt.Errorf("store: run ID prefix %q is ambiguous", prefix)
	}
}

// List returns run summaries, most recently updated first.
func (s *SQLite) List(ctx context.Context, opts ListOptions) ([]RunSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT run_id, status, repository, ticket_id, score, phase, last_error, started_at, updated_at FROM runs`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r                RunSummary
			status           string
			started, updated string
		)
		if err := rows.Scan(&r.RunID, &status, &r.Repository, &r.TicketID, &r.Score,
			&r.Phase, &r.LastError, &started, &updated); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.Status = workflow.Status(status)
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a run and its events.
func (s *SQLite) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("store: delete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_events WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("store: delete events for %s: %w", runID, err)
	}
	return nil
}

// Notify records an engine event. It lets the store sit in a
// notify.MultiNotifier next to the log and chat sinks.
func (s *SQLite) Notify(ctx context.Context, event notify.Event) error {
	if event.RunID == "" {
		return nil
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_events (run_id, type, step, message, severity, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.RunID, string(event.Type), event.Step, event.Message, event.Severity,
		ts.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("store: record event: %w", err)
	}
	return nil
}

// Events returns the recorded events of runID in insertion order.
func (s *SQLite) Events(ctx context.Context, runID string) ([]notify.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, step, message, severity, created_at FROM run_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	var out []notify.Event
	for rows.Next() {
		var (
			e       notify.Event
			typ, ts string
		)
		if err := rows.Scan(&typ, &e.Step, &e.Message, &e.Severity, &ts); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.RunID = runID
		e.Type = notify.EventType(typ)
		e.Timestamp, _ = time.Parse(timeLayout, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

var _ notify.Notifier = (*SQLite)(nil)
