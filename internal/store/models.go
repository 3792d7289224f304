// Package store contains the database layer for workplane.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Workspace represents a tenant in the multi-tenant system.
// All scheduler operations must be scoped by WorkspaceID. The
// schedulers treat workspaces as read-only input.
type Workspace struct {
	ID        uuid.UUID
	Name      string
	Subdomain string

	// TasksEnabled gates the task coordinator for this workspace.
	TasksEnabled bool

	// PoolAPIKey is nil for workspaces without pool credentials.
	PoolAPIKey *string

	// ContainerConfigStatus must be FINALIZED before pod repair runs.
	ContainerConfigStatus ContainerConfigStatus

	CreatedAt time.Time
}

// ContainerConfigStatus tracks whether a workspace's container file
// configuration has been finalized.
type ContainerConfigStatus string

const (
	ContainerConfigDraft     ContainerConfigStatus = "DRAFT"
	ContainerConfigFinalized ContainerConfigStatus = "FINALIZED"
)

// Task represents a unit of work in a workspace. Lifecycle status and
// workflow status move independently: a task can be IN_PROGRESS while
// its workflow already FAILED.
type Task struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Title       string
	Description string

	Status         TaskStatus
	WorkflowStatus WorkflowStatus
	Priority       Priority
	SourceType     SourceType

	// DependsOnTaskIDs lists direct prerequisites. A missing id or a
	// prerequisite in a terminal state counts as satisfied.
	DependsOnTaskIDs []uuid.UUID

	WorkflowStartedAt   *time.Time
	WorkflowCompletedAt *time.Time
	CreatedAt           time.Time
}

// TaskStatus is the user-facing lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Blocking reports whether a task in this state still blocks tasks
// depending on it.
func (s TaskStatus) Blocking() bool {
	return s != TaskStatusDone && s != TaskStatusCancelled
}

// WorkflowStatus is the state of a task's external workflow execution.
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "PENDING"
	WorkflowStatusInProgress WorkflowStatus = "IN_PROGRESS"
	WorkflowStatusCompleted  WorkflowStatus = "COMPLETED"
	WorkflowStatusFailed     WorkflowStatus = "FAILED"
	WorkflowStatusHalted     WorkflowStatus = "HALTED"
)

// Priority orders tasks and recommendations for dispatch.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank returns the numeric rank of the priority, lower is more urgent.
// Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// SourceType records the provenance of a task. SourceTaskCoordinator is
// the dedup marker: it identifies tasks the coordinator itself created,
// which keeps repeated cron triggers from creating duplicates.
type SourceType string

const (
	SourceUser            SourceType = "USER"
	SourceTaskCoordinator SourceType = "TASK_COORDINATOR"
)

// Recommendation is a system-generated suggestion awaiting accept or
// reject. Once accepted it becomes a task and is never reprocessed.
type Recommendation struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Title       string
	Description string

	Status   RecommendationStatus
	Priority Priority

	// RunID references the scheduler run that produced the recommendation.
	RunID *uuid.UUID

	AcceptedAt *time.Time
	AcceptedBy *string
	CreatedAt  time.Time
}

// RecommendationStatus is transitioned exactly once, PENDING to
// ACCEPTED or REJECTED, via a conditional update.
type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "PENDING"
	RecommendationAccepted RecommendationStatus = "ACCEPTED"
	RecommendationRejected RecommendationStatus = "REJECTED"
)

// WorkflowRun is an audit record of one external workflow invocation.
// The count of POD_REPAIR rows per workspace is the input to the
// max-attempts policy.
type WorkflowRun struct {
	ID            uuid.UUID
	WorkspaceID   uuid.UUID
	Type          WorkflowRunType
	Status        WorkflowStatus
	CorrelationID string
	CreatedAt     time.Time
}

// WorkflowRunType classifies workflow run audit rows.
type WorkflowRunType string

const (
	WorkflowRunPodRepair WorkflowRunType = "POD_REPAIR"
)
