package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"BistRadar/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the scan log to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP API read the scan log while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			source      TEXT NOT NULL,
			mode        TEXT NOT NULL,
			target      TEXT NOT NULL,
			requested   INTEGER,
			analyzed    INTEGER,
			skipped     INTEGER,
			results     INTEGER,
			partial     INTEGER,
			elapsed_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_mode ON scan_runs(mode)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO scan_runs
		(id, started_at, source, mode, target, requested, analyzed, skipped, results, partial, elapsed_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), string(run.Source), string(run.Mode), run.Target,
		run.Requested, run.Analyzed, run.Skipped, run.Results, run.Partial, run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert scan run %s: %w", run.ID, err)
	}
	return nil
}

// RecentScans returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentScans(limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, started_at, source, mode, target,
		requested, analyzed, skipped, results, partial, elapsed_ms
		FROM scan_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var (
			run              ScanRun
			started, elapsed int64
			source, mode     string
		)
		if err := rows.Scan(&run.ID, &started, &source, &mode, &run.Target,
			&run.Requested, &run.Analyzed, &run.Skipped, &run.Results, &run.Partial, &elapsed); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		run.Elapsed = time.Duration(elapsed) * time.Millisecond
		run.Source, run.Mode = model.Source(source), model.Mode(mode)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
