package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/canvasflow/canvasflow/pkg/models"
	"github.com/canvasflow/canvasflow/pkg/persistence"
)

// ExecutionRepository handles execution-history database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Executions returns the runs of one workflow, newest first. An empty
// workflowID returns every run.
func (r *ExecutionRepository) Executions(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , status
		  , records
		  , error
		  , started_at
		  , finished_at
		FROM executions
		WHERE ($1 = '' OR workflow_id = $1)
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "Failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// ExecutionByID returns one run.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , status
		  , records
		  , error
		  , started_at
		  , finished_at
		FROM executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

// SaveExecution upserts a run aggregate.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	records, err := json.Marshal(execution.Records)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	var finishedAt any
	if !execution.FinishedAt.IsZero() {
		finishedAt = execution.FinishedAt
	}

	query := `
		INSERT INTO executions (id, workflow_id, status, records, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			records = EXCLUDED.records,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.WorkflowID, execution.Status,
		records, execution.Error, execution.StartedAt, finishedAt)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution  models.Execution
		records    []byte
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&execution.ID, &execution.WorkflowID, &execution.Status,
		&records, &execution.Error,
		&execution.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		execution.FinishedAt = finishedAt.Time
	}

	if err := json.Unmarshal(records, &execution.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	return &execution, nil
}
