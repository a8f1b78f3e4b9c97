package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, grounded directly on
// graph/store/sqlite.go: a single-file database opened with WAL mode
// and a busy timeout, one writer connection, auto-migrated schema on
// first use. Its schema (workflow_steps, workflow_checkpoints, ...) is
// generalized here to the two tables this engine actually needs:
// executions and checkpoints.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at
// path and migrates its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			run_id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			workflow_path TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			total_steps INTEGER NOT NULL,
			agent TEXT NOT NULL,
			inputs TEXT NOT NULL,
			outputs TEXT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT NOT NULL,
			step_index INTEGER NOT NULL,
			step_name TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			outputs TEXT,
			error TEXT,
			retry_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, step_index)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) CreateExecution(ctx context.Context, rec *ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputsJSON, err := json.Marshal(rec.Inputs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (run_id, workflow_id, workflow_path, status, started_at, total_steps, agent, inputs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.WorkflowID, rec.WorkflowPath, string(rec.Status), rec.StartedAt, rec.TotalSteps, rec.Agent, string(inputsJSON))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) GetExecution(ctx context.Context, runID string) (*ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, workflow_id, workflow_path, status, started_at, completed_at, total_steps, agent, inputs, outputs, error
		FROM executions WHERE run_id = ?`, runID)
	return scanExecution(row)
}

func (s *SQLiteStore) UpdateExecution(ctx context.Context, rec *ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outputsJSON, err := json.Marshal(rec.Outputs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE executions SET status = ?, completed_at = ?, outputs = ?, error = ?
		WHERE run_id = ?`,
		string(rec.Status), rec.CompletedAt, string(outputsJSON), rec.Error, rec.RunID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp *StepCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outputsJSON, err := json.Marshal(cp.Outputs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, step_index, step_name, status, started_at, completed_at, outputs, error, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, step_index) DO UPDATE SET
			step_name = excluded.step_name,
			status = excluded.status,
			completed_at = excluded.completed_at,
			outputs = excluded.outputs,
			error = excluded.error,
			retry_count = excluded.retry_count`,
		cp.RunID, cp.StepIndex, cp.StepName, cp.Status, cp.StartedAt, cp.CompletedAt, string(outputsJSON), cp.Error, cp.RetryCount)
	return err
}

func (s *SQLiteStore) GetCheckpoints(ctx context.Context, runID string) ([]*StepCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, step_index, step_name, status, started_at, completed_at, outputs, error, retry_count
		FROM checkpoints WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*StepCheckpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetResumePoint(ctx context.Context, runID string, totalSteps int) (int, error) {
	cps, err := s.GetCheckpoints(ctx, runID)
	if err != nil {
		return 0, err
	}
	return resumePointFromCheckpoints(cps, totalSteps), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExecution(row scannable) (*ExecutionRecord, error) {
	var rec ExecutionRecord
	var status string
	var inputsJSON, outputsJSON sql.NullString
	var completedAt sql.NullTime
	var errStr sql.NullString

	err := row.Scan(&rec.RunID, &rec.WorkflowID, &rec.WorkflowPath, &status, &rec.StartedAt,
		&completedAt, &rec.TotalSteps, &rec.Agent, &inputsJSON, &outputsJSON, &errStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Status = ExecutionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	if errStr.Valid {
		rec.Error = errStr.String
	}
	if inputsJSON.Valid && inputsJSON.String != "" {
		_ = json.Unmarshal([]byte(inputsJSON.String), &rec.Inputs)
	}
	if outputsJSON.Valid && outputsJSON.String != "" {
		_ = json.Unmarshal([]byte(outputsJSON.String), &rec.Outputs)
	}
	return &rec, nil
}

func scanCheckpoint(rows *sql.Rows) (*StepCheckpoint, error) {
	var cp StepCheckpoint
	var completedAt sql.NullTime
	var outputsJSON, errStr sql.NullString

	if err := rows.Scan(&cp.RunID, &cp.StepIndex, &cp.StepName, &cp.Status, &cp.StartedAt,
		&completedAt, &outputsJSON, &errStr, &cp.RetryCount); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		cp.CompletedAt = &t
	}
	if errStr.Valid {
		cp.Error = errStr.String
	}
	if outputsJSON.Valid && outputsJSON.String != "" {
		_ = json.Unmarshal([]byte(outputsJSON.String), &cp.Outputs)
	}
	return &cp, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint violations as a generic
	// *sqlite.Error whose message contains "UNIQUE constraint failed";
	// string matching here mirrors graph/store/sqlite.go's approach for
	// the same driver.
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "constraint failed"))
}
