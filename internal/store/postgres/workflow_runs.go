package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"workplane/internal/store"

	"github.com/google/uuid"
)

// CountRunsByType returns how many workflow runs of the given type
// exist for a workspace.
func (s *Store) CountRunsByType(ctx context.Context, workspaceID uuid.UUID, runType store.WorkflowRunType) (int64, error) {
	query := `SELECT COUNT(*) FROM workflow_runs WHERE workspace_id = $1 AND type = $2`

	var count int64
	err := s.db.QueryRowContext(ctx, query, workspaceID, runType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workflow runs: %w", err)
	}

	return count, nil
}

// LatestRunByType returns the newest workflow run of the given type, or
// nil if the workspace has none.
func (s *Store) LatestRunByType(ctx context.Context, workspaceID uuid.UUID, runType store.WorkflowRunType) (*store.WorkflowRun, error) {
	query := `
		SELECT id, workspace_id, type, status, correlation_id, created_at
		FROM workflow_runs
		WHERE workspace_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run store.WorkflowRun
	err := s.db.QueryRowContext(ctx, query, workspaceID, runType).Scan(
		&run.ID, &run.WorkspaceID, &run.Type, &run.Status, &run.CorrelationID, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest workflow run: %w", err)
	}

	return &run, nil
}

// CreateWorkflowRun inserts a new audit row.
func (s *Store) CreateWorkflowRun(ctx context.Context, tx store.DBTransaction, run *store.WorkflowRun) error {
	query := `
		INSERT INTO workflow_runs (id, workspace_id, type, status, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query,
		run.ID, run.WorkspaceID, run.Type, run.Status, run.CorrelationID, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workflow run: %w", err)
	}
	return nil
}

// UpdateWorkflowRunStatus moves an audit row to a new status.
func (s *Store) UpdateWorkflowRunStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.WorkflowStatus) error {
	query := `UPDATE workflow_runs SET status = $1 WHERE id = $2`

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update workflow run %s: %w", id, err)
	}
	return nil
}
