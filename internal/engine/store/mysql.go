package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed Store for deployments that share one
// database across multiple engine processes, the networked counterpart
// to SQLiteStore. Grounded on graph/store/mysql.go's use of
// github.com/go-sql-driver/mysql as a second SQL persistence backend;
// the schema and query shapes mirror SQLiteStore's, adapted to MySQL's
// placeholder and upsert syntax.
type MySQLStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewMySQLStore opens a connection pool against dsn (a
// go-sql-driver/mysql data source name) and migrates the schema.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("store: open mysql connection: %w", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			run_id VARCHAR(191) PRIMARY KEY,
			workflow_id VARCHAR(191) NOT NULL,
			workflow_path TEXT NOT NULL,
			status VARCHAR(32) NOT NULL,
			started_at DATETIME NOT NULL,
			completed_at DATETIME NULL,
			total_steps INT NOT NULL,
			agent VARCHAR(191) NOT NULL,
			inputs JSON NOT NULL,
			outputs JSON NULL,
			error TEXT NULL
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			run_id VARCHAR(191) NOT NULL,
			step_index INT NOT NULL,
			step_name VARCHAR(191) NOT NULL,
			status VARCHAR(32) NOT NULL,
			started_at DATETIME NOT NULL,
			completed_at DATETIME NULL,
			outputs JSON NULL,
			error TEXT NULL,
			retry_count INT NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, step_index)
		) ENGINE=InnoDB`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) CreateExecution(ctx context.Context, rec *ExecutionRecord) error {
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
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *MySQLStore) GetExecution(ctx context.Context, runID string) (*ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, workflow_id, workflow_path, status, started_at, completed_at, total_steps, agent, inputs, outputs, error
		FROM executions WHERE run_id = ?`, runID)
	return scanExecution(row)
}

func (s *MySQLStore) UpdateExecution(ctx context.Context, rec *ExecutionRecord) error {
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
		if _, getErr := s.GetExecution(ctx, rec.RunID); getErr == ErrNotFound {
			return ErrNotFound
		}
		// RowsAffected is 0 when the row already matched the new values;
		// MySQL does not count a no-op UPDATE as affected. That is not
		// an error here.
	}
	return nil
}

func (s *MySQLStore) SaveCheckpoint(ctx context.Context, cp *StepCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outputsJSON, err := json.Marshal(cp.Outputs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, step_index, step_name, status, started_at, completed_at, outputs, error, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			step_name = VALUES(step_name),
			status = VALUES(status),
			completed_at = VALUES(completed_at),
			outputs = VALUES(outputs),
			error = VALUES(error),
			retry_count = VALUES(retry_count)`,
		cp.RunID, cp.StepIndex, cp.StepName, cp.Status, cp.StartedAt, cp.CompletedAt, string(outputsJSON), cp.Error, cp.RetryCount)
	return err
}

func (s *MySQLStore) GetCheckpoints(ctx context.Context, runID string) ([]*StepCheckpoint, error) {
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

func (s *MySQLStore) GetResumePoint(ctx context.Context, runID string, totalSteps int) (int, error) {
	cps, err := s.GetCheckpoints(ctx, runID)
	if err != nil {
		return 0, err
	}
	return resumePointFromCheckpoints(cps, totalSteps), nil
}
