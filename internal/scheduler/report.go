// Package scheduler implements the periodic multi-tenant orchestration
// engine: the task coordinator and the pod health scheduler.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"workplane/pkg/api"
)

// SkipReason labels why the pod health scheduler skipped a workspace.
type SkipReason string

const (
	SkipMaxAttemptsReached SkipReason = "maxAttemptsReached"
	SkipWorkflowInProgress SkipReason = "workflowInProgress"
	SkipNoFailedProcesses  SkipReason = "noFailedProcesses"
)

// Report accumulates per-workspace outcomes into one run report. It is
// the only mutable state shared across workspaces, so every method is
// safe for concurrent use.
type Report struct {
	mu sync.Mutex

	disabled bool

	workspacesProcessed int
	tasksHalted         int
	tasksDispatched     int
	tasksCreated        int

	workspacesWithRunningPods int
	repairsTriggered          int
	validationsTriggered      int
	staklinkRestarts          int
	skipped                   map[SkipReason]int

	errors []api.WorkspaceError
}

// NewReport creates an empty run report.
func NewReport() *Report {
	return &Report{skipped: make(map[SkipReason]int)}
}

// NewDisabledReport creates the no-op report returned when a scheduler's
// feature flag is off.
func NewDisabledReport() *Report {
	r := NewReport()
	r.disabled = true
	return r
}

// Disabled reports whether the run was short-circuited by the feature flag.
func (r *Report) Disabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled
}

// WorkspaceProcessed counts one eligible workspace entering the pipeline.
func (r *Report) WorkspaceProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspacesProcessed++
}

// TaskHalted counts one stale task transitioned to HALTED.
func (r *Report) TaskHalted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasksHalted++
}

// TaskDispatched counts one task handed to the workflow service.
func (r *Report) TaskDispatched() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasksDispatched++
}

// TaskCreated counts one task synthesized from an accepted recommendation.
func (r *Report) TaskCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasksCreated++
}

// RunningPods counts one workspace whose pool was already fully healthy.
func (r *Report) RunningPods() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspacesWithRunningPods++
}

// RepairTriggered counts one repair workflow started.
func (r *Report) RepairTriggered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repairsTriggered++
}

// ValidationTriggered counts one steady-state validation issued.
func (r *Report) ValidationTriggered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validationsTriggered++
}

// StaklinkRestarted counts one lightweight reconnect action.
func (r *Report) StaklinkRestarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staklinkRestarts++
}

// Skipped counts one workspace skipped with the given reason.
func (r *Report) Skipped(reason SkipReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

// AddError records a workspace-scoped failure without aborting the run.
func (r *Report) AddError(workspaceID uuid.UUID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, api.WorkspaceError{
		WorkspaceID: workspaceID.String(),
		Error:       err.Error(),
	})
}

// ProcessedCount returns the number of eligible workspaces that
// entered the pipeline so far.
func (r *Report) ProcessedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workspacesProcessed
}

// ErrorCount returns the number of workspace-scoped failures so far.
func (r *Report) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// TaskCoordinatorResponse renders the report as the coordinator's cron
// response. Counters are always present, zero-valued when nothing ran.
func (r *Report) TaskCoordinatorResponse() api.TaskCoordinatorResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp := api.TaskCoordinatorResponse{
		Success:             true,
		WorkspacesProcessed: r.workspacesProcessed,
		TasksCreated:        r.tasksCreated,
		TasksHalted:         r.tasksHalted,
		TasksDispatched:     r.tasksDispatched,
		ErrorCount:          len(r.errors),
		Errors:              append([]api.WorkspaceError(nil), r.errors...),
		Timestamp:           time.Now().UTC(),
	}
	if r.disabled {
		resp.Message = "Task Coordinator is disabled"
	}
	return resp
}

// PodRepairResponse renders the report as the pod repair cron response.
func (r *Report) PodRepairResponse() api.PodRepairResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp := api.PodRepairResponse{
		Success:                   true,
		WorkspacesProcessed:       r.workspacesProcessed,
		WorkspacesWithRunningPods: r.workspacesWithRunningPods,
		RepairsTriggered:          r.repairsTriggered,
		ValidationsTriggered:      r.validationsTriggered,
		StaklinkRestarts:          r.staklinkRestarts,
		Skipped: api.SkippedBreakdown{
			MaxAttemptsReached: r.skipped[SkipMaxAttemptsReached],
			WorkflowInProgress: r.skipped[SkipWorkflowInProgress],
			NoFailedProcesses:  r.skipped[SkipNoFailedProcesses],
		},
		ErrorCount: len(r.errors),
		Errors:     append([]api.WorkspaceError(nil), r.errors...),
		Timestamp:  time.Now().UTC(),
	}
	if r.disabled {
		resp.Message = "Pod Repair is disabled"
	}
	return resp
}
