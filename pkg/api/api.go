// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// WorkspaceError reports a failure scoped to a single workspace.
// Per-workspace failures never abort a scheduler run; they are
// collected here instead.
type WorkspaceError struct {
	WorkspaceID string `json:"workspaceId"`
	Error       string `json:"error"`
}

// TaskCoordinatorResponse is the response body of GET /cron/task-coordinator.
// Every counter field is always present, zero-valued when nothing happened.
type TaskCoordinatorResponse struct {
	Success             bool             `json:"success"`
	Message             string           `json:"message,omitempty"`
	WorkspacesProcessed int              `json:"workspacesProcessed"`
	TasksCreated        int              `json:"tasksCreated"`
	TasksHalted         int              `json:"tasksHalted"`
	TasksDispatched     int              `json:"tasksDispatched"`
	ErrorCount          int              `json:"errorCount"`
	Errors              []WorkspaceError `json:"errors,omitempty"`
	Timestamp           time.Time        `json:"timestamp"`
}

// SkippedBreakdown counts workspaces the pod health scheduler skipped,
// keyed by reason.
type SkippedBreakdown struct {
	MaxAttemptsReached int `json:"maxAttemptsReached"`
	WorkflowInProgress int `json:"workflowInProgress"`
	NoFailedProcesses  int `json:"noFailedProcesses"`
}

// PodRepairResponse is the response body of GET /cron/pod-repair.
type PodRepairResponse struct {
	Success                   bool             `json:"success"`
	Message                   string           `json:"message,omitempty"`
	WorkspacesProcessed       int              `json:"workspacesProcessed"`
	WorkspacesWithRunningPods int              `json:"workspacesWithRunningPods"`
	RepairsTriggered          int              `json:"repairsTriggered"`
	ValidationsTriggered      int              `json:"validationsTriggered"`
	StaklinkRestarts          int              `json:"staklinkRestarts"`
	Skipped                   SkippedBreakdown `json:"skipped"`
	ErrorCount                int              `json:"errorCount"`
	Errors                    []WorkspaceError `json:"errors,omitempty"`
	Timestamp                 time.Time        `json:"timestamp"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
