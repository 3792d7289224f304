// Package workflow contains clients for the external workflow-execution
// and pool-management services. Only their call contracts live here;
// the services themselves are remote.
package workflow

import (
	"context"

	"github.com/google/uuid"

	"workplane/internal/store"
)

// Status mirrors the lifecycle of a remote workflow execution.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Kind selects which remote workflow is started.
type Kind string

const (
	KindTaskExecution Kind = "TASK_EXECUTION"
	KindPodRepair     Kind = "POD_REPAIR"
	KindPodValidation Kind = "POD_VALIDATION"
)

// Service starts workflows and polls their status.
type Service interface {
	// StartWorkflow asks the remote service to start a workflow for the
	// workspace and returns the correlation id.
	StartWorkflow(ctx context.Context, workspaceID uuid.UUID, kind Kind, params map[string]string) (string, error)

	// WorkflowStatus polls the status of a previously started workflow.
	WorkflowStatus(ctx context.Context, correlationID string) (Status, error)
}

// PoolStatus is the per-run snapshot of a workspace's pod fleet.
// It is fetched fresh every run and never persisted.
type PoolStatus struct {
	RunningVMs int `json:"runningVms"`
	PendingVMs int `json:"pendingVms"`
	FailedVMs  int `json:"failedVms"`
	UsedVMs    int `json:"usedVms"`
	UnusedVMs  int `json:"unusedVms"`
}

// Healthy reports whether the whole pool is in a completed, running
// state with nothing pending or failed.
func (p PoolStatus) Healthy() bool {
	return p.RunningVMs > 0 && p.PendingVMs == 0 && p.FailedVMs == 0
}

// Pod is one entry of the pool's workspace list.
type Pod struct {
	Subdomain string `json:"subdomain"`
	State     string `json:"state"`
	Password  string `json:"password"`
}

// Running reports whether the pod is in the running pool state.
func (p Pod) Running() bool {
	return p.State == "started" || p.State == "running"
}

// Pool talks to the pool-management service.
type Pool interface {
	// PoolStatus fetches the workspace's pool snapshot.
	PoolStatus(ctx context.Context, ws *store.Workspace) (*PoolStatus, error)

	// PoolPods lists the pods backing the workspace.
	PoolPods(ctx context.Context, ws *store.Workspace) ([]Pod, error)

	// RestartStaklink starts the companion proxy process on the
	// workspace's pod. This is the lightweight reconnect action,
	// distinct from a full repair workflow.
	RestartStaklink(ctx context.Context, ws *store.Workspace) error
}

// Process is one entry of a pod's process list.
type Process struct {
	PID    int    `json:"pid"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Port   int    `json:"port"`
}

// Prober reaches a single pod through its control URL.
type Prober interface {
	// Processes fetches the pod's process list. An error means the
	// introspection endpoint itself is unreachable.
	Processes(ctx context.Context, pod Pod) ([]Process, error)

	// FrontendReachable probes the pod's externally reachable frontend
	// URL. It returns the probed URL alongside the result.
	FrontendReachable(ctx context.Context, pod Pod) (bool, string, error)
}
