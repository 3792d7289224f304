package postgres

import (
	"context"
	"fmt"
	"time"

	"workplane/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ListTasksByWorkspace returns all tasks of a workspace, oldest first.
func (s *Store) ListTasksByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*store.Task, error) {
	query := `
		SELECT id, workspace_id, title, description, status, workflow_status, priority,
		       source_type, depends_on_task_ids, workflow_started_at, workflow_completed_at, created_at
		FROM tasks
		WHERE workspace_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*store.Task
	for rows.Next() {
		var t store.Task
		var deps pq.StringArray
		if err := rows.Scan(
			&t.ID, &t.WorkspaceID, &t.Title, &t.Description,
			&t.Status, &t.WorkflowStatus, &t.Priority, &t.SourceType,
			&deps, &t.WorkflowStartedAt, &t.WorkflowCompletedAt, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		for _, d := range deps {
			id, err := uuid.Parse(d)
			if err != nil {
				return nil, fmt.Errorf("malformed dependency id %q on task %s: %w", d, t.ID, err)
			}
			t.DependsOnTaskIDs = append(t.DependsOnTaskIDs, id)
		}

		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// CreateTask inserts a new task row.
func (s *Store) CreateTask(ctx context.Context, tx store.DBTransaction, task *store.Task) error {
	query := `
		INSERT INTO tasks (id, workspace_id, title, description, status, workflow_status,
		                   priority, source_type, depends_on_task_ids, workflow_started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	deps := make([]string, 0, len(task.DependsOnTaskIDs))
	for _, id := range task.DependsOnTaskIDs {
		deps = append(deps, id.String())
	}

	executor := s.getExecutor(tx)
	_, err := executor.ExecContext(ctx, query,
		task.ID,
		task.WorkspaceID,
		task.Title,
		task.Description,
		task.Status,
		task.WorkflowStatus,
		task.Priority,
		task.SourceType,
		pq.Array(deps),
		task.WorkflowStartedAt,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// TransitionWorkflowStatus updates a task's workflow status only when
// the current status still matches 'from'. The rows-affected count is
// the idempotency signal: zero means another writer already applied
// the transition.
func (s *Store) TransitionWorkflowStatus(ctx context.Context, tx store.DBTransaction, taskID uuid.UUID, from, to store.WorkflowStatus, completedAt *time.Time) (bool, error) {
	query := `
		UPDATE tasks
		SET workflow_status = $1, workflow_completed_at = $2
		WHERE id = $3 AND workflow_status = $4
	`

	executor := s.getExecutor(tx)
	res, err := executor.ExecContext(ctx, query, to, completedAt, taskID, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition task %s: %w", taskID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
