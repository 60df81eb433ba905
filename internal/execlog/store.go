// Package execlog is the sqlite-backed execution log store: every
// task_start record the engine emits lands here for later inspection (the
// engine writes no other events). Grounded in the teacher's internal/store
// package (modernc.org/sqlite, embedded migrations, WAL mode), retargeted
// from agent/session history to per-run task execution records.
package execlog

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}

// Entry is a single task_log row.
type Entry struct {
	ID           int64
	RunID        string
	RuntimeLabel string
	Cmd          string
	Line         *int64
	Event        string
	Detail       *string
	Timestamp    time.Time
}

// AppendTaskStart records the per-task preamble log entry execute_task
// emits before running a command.
func (s *Store) AppendTaskStart(runID, runtimeLabel, cmd string, line *int64, detail *string) error {
	_, err := s.db.Exec(
		`INSERT INTO task_log (run_id, runtime_label, cmd, line, event, detail) VALUES (?, ?, ?, ?, 'task_start', ?)`,
		runID, runtimeLabel, cmd, line, detail,
	)
	if err != nil {
		return fmt.Errorf("append task_start: %w", err)
	}
	return nil
}

// AppendEvent records a non-task_start event (menu_save, menu_load, etc).
func (s *Store) AppendEvent(runID, runtimeLabel, event string, detail *string) error {
	_, err := s.db.Exec(
		`INSERT INTO task_log (run_id, runtime_label, cmd, event, detail) VALUES (?, ?, '', ?, ?)`,
		runID, runtimeLabel, event, detail,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Store) ListByRun(runID string) ([]*Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, runtime_label, cmd, line, event, detail, timestamp
		 FROM task_log WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list by run: %w", err)
	}
	defer rows.Close()
	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.RuntimeLabel, &e.Cmd, &e.Line, &e.Event, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
