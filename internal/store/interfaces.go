package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// WorkspaceStore lists tenants for scheduler iteration.
type WorkspaceStore interface {
	// ListWorkspaces returns every workspace. Eligibility filtering is
	// done by the schedulers, not the query.
	ListWorkspaces(ctx context.Context) ([]*Workspace, error)
}

// TaskStore handles the persistence of tasks.
type TaskStore interface {
	// ListTasksByWorkspace returns all tasks of a workspace, oldest first.
	ListTasksByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*Task, error)

	// CreateTask inserts a new task row.
	CreateTask(ctx context.Context, tx DBTransaction, task *Task) error

	// TransitionWorkflowStatus performs a conditional write: the row is
	// updated only if its workflow_status still equals from. It returns
	// false when another writer got there first, which makes repeated
	// scheduler invocations no-ops.
	TransitionWorkflowStatus(ctx context.Context, tx DBTransaction, taskID uuid.UUID, from, to WorkflowStatus, completedAt *time.Time) (bool, error)
}

// RecommendationStore handles the persistence of recommendations.
type RecommendationStore interface {
	// ListPendingRecommendations returns a workspace's PENDING
	// recommendations, oldest first.
	ListPendingRecommendations(ctx context.Context, workspaceID uuid.UUID) ([]*Recommendation, error)

	// AcceptRecommendation transitions PENDING -> ACCEPTED with a
	// conditional write and returns false if the recommendation was no
	// longer pending.
	AcceptRecommendation(ctx context.Context, tx DBTransaction, id uuid.UUID, acceptedBy string, acceptedAt time.Time) (bool, error)
}

// WorkflowRunStore handles workflow run audit rows.
type WorkflowRunStore interface {
	// CountRunsByType returns how many runs of the given type exist for
	// a workspace, regardless of status.
	CountRunsByType(ctx context.Context, workspaceID uuid.UUID, runType WorkflowRunType) (int64, error)

	// LatestRunByType returns the most recent run of the given type, or
	// nil if the workspace has none.
	LatestRunByType(ctx context.Context, workspaceID uuid.UUID, runType WorkflowRunType) (*WorkflowRun, error)

	// CreateWorkflowRun inserts a new audit row.
	CreateWorkflowRun(ctx context.Context, tx DBTransaction, run *WorkflowRun) error

	// UpdateWorkflowRunStatus moves an audit row to a new status.
	UpdateWorkflowRunStatus(ctx context.Context, tx DBTransaction, id uuid.UUID, status WorkflowStatus) error
}
