package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps writes from the UI goroutine serialized.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			pack TEXT NOT NULL DEFAULT '',
			seed INTEGER NOT NULL DEFAULT 0,
			start_ts TEXT NOT NULL,
			end_ts TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT '',
			max_stage INTEGER NOT NULL DEFAULT 0,
			attempts INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			event_ts TEXT NOT NULL DEFAULT (datetime('now')),
			kind TEXT NOT NULL,
			stage TEXT NOT NULL DEFAULT '',
			passed INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(run_id) REFERENCES runs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS run_events_run ON run_events(run_id);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartRun(ctx context.Context, run Run) (int64, error) {
	start := run.StartTS
	if start.IsZero() {
		start = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(session_id, pack, seed, start_ts) VALUES(?,?,?,?)`,
		run.SessionID,
		strings.TrimSpace(run.Pack),
		int64(run.Seed),
		start.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordStage logs a stage entry. Numbered stages also raise max_stage.
func (s *SQLiteStore) RecordStage(ctx context.Context, runID int64, stage string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO run_events(run_id, kind, stage) VALUES(?, 'stage', ?)`, runID, stage); err != nil {
		return err
	}
	n, err := strconv.Atoi(stage)
	if err != nil {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET max_stage = MAX(max_stage, ?) WHERE id = ?`, n, runID)
	return err
}

func (s *SQLiteStore) RecordAttempt(ctx context.Context, runID int64, stage int, passed bool) error {
	passedInt := ifThen(passed, 1, 0)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO run_events(run_id, kind, stage, passed) VALUES(?, 'attempt', ?, ?)`,
		runID, strconv.Itoa(stage), passedInt); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET attempts = attempts + 1, failures = failures + ? WHERE id = ?`,
		1-passedInt, runID); err != nil {
		return err
	}
	return nil
}

// FinishRun records the outcome once. Later calls for the same run are ignored.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID int64, outcome string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET outcome = ?, end_ts = ? WHERE id = ? AND outcome = ''`,
		strings.TrimSpace(outcome), at.UTC().Format(timeLayout), runID)
	return err
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) (err error) {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as runs,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),0) as wins,
			COALESCE(SUM(CASE WHEN outcome LIKE ? THEN 1 ELSE 0 END),0) as fatal,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),0) as quit,
			COALESCE(SUM(attempts),0) as attempts,
			COALESCE(SUM(attempts - failures),0) as passes,
			COALESCE(MAX(max_stage),0) as best_stage
		FROM runs
	`, OutcomeWon, FatalPrefix+"%", OutcomeQuit)
	if err := row.Scan(&out.Runs, &out.Wins, &out.Fatal, &out.Quit, &out.Attempts, &out.Passes, &out.BestStage); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// GetFatalReasons counts fatal outcomes by reason.
func (s *SQLiteStore) GetFatalReasons(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM runs
		WHERE outcome LIKE ?
		GROUP BY outcome
	`, FatalPrefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(outcome, FatalPrefix)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLastRun(ctx context.Context) (*LastRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, pack, start_ts, end_ts, outcome, max_stage, attempts, failures
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`)
	var (
		out      LastRun
		startRaw string
		endRaw   string
	)
	if err := row.Scan(&out.SessionID, &out.Pack, &startRaw, &endRaw, &out.Outcome, &out.MaxStage, &out.Attempts, &out.Failures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if t, err := time.Parse(timeLayout, startRaw); err == nil {
		out.StartTS = t
	}
	if t, err := time.Parse(timeLayout, endRaw); err == nil {
		out.EndTS = t
	}
	return &out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func ifThen(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
