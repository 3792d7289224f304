package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"workplane/internal/store"
	"workplane/internal/workflow"
)

// CoordinatorStore combines the store interfaces the task coordinator needs.
type CoordinatorStore interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	store.WorkspaceStore
	store.TaskStore
	store.RecommendationStore
}

// CoordinatorOptions configures a Coordinator. Everything the scheduler
// needs arrives here explicitly; the scheduler never reads the
// environment.
type CoordinatorOptions struct {
	// Enabled is the scheduler-level feature flag. When false, Run
	// returns a no-op report without touching any workspace.
	Enabled bool

	// StaleTaskThreshold is how long a workflow may stay IN_PROGRESS
	// before the task is halted. Default 24h.
	StaleTaskThreshold time.Duration

	// Concurrency bounds how many workspaces are processed in parallel.
	// Default 1 (sequential).
	Concurrency int

	// AcceptedBy is the actor recorded on accepted recommendations.
	AcceptedBy string
}

// Coordinator is the task coordinator scheduler. Each Run scans every
// eligible workspace and applies three ordered phases: stale task
// reaping, priority dispatch, and recommendation promotion.
type Coordinator struct {
	store     CoordinatorStore
	workflows workflow.Service
	opts      CoordinatorOptions
	log       *slog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewCoordinator creates a task coordinator.
func NewCoordinator(s CoordinatorStore, workflows workflow.Service, opts CoordinatorOptions, log *slog.Logger) *Coordinator {
	if opts.StaleTaskThreshold <= 0 {
		opts.StaleTaskThreshold = 24 * time.Hour
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.AcceptedBy == "" {
		opts.AcceptedBy = "task-coordinator"
	}

	return &Coordinator{
		store:     s,
		workflows: workflows,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one coordinator invocation and returns the aggregated
// report. Only a failure to enumerate workspaces aborts the run;
// everything else is isolated per workspace.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	if !c.opts.Enabled {
		return NewDisabledReport(), nil
	}

	tracer := otel.Tracer("task-coordinator")
	ctx, span := tracer.Start(ctx, "coordinator_run")
	defer span.End()

	workspaces, err := c.store.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate workspaces: %w", err)
	}

	report := NewReport()
	forEachWorkspace(ctx, c.opts.Concurrency, workspaces, func(ctx context.Context, ws *store.Workspace) {
		if !CoordinatorEligible(ws) {
			return
		}
		report.WorkspaceProcessed()
		runIsolated(ctx, c.log, report, ws, func(ctx context.Context) error {
			return c.processWorkspace(ctx, ws, report)
		})
	})

	span.SetAttributes(
		attribute.Int("workspaces.enumerated", len(workspaces)),
		attribute.Int("workspaces.processed", report.ProcessedCount()),
		attribute.Int("errors", report.ErrorCount()),
	)

	return report, nil
}

// processWorkspace applies the three coordinator phases to one workspace.
func (c *Coordinator) processWorkspace(ctx context.Context, ws *store.Workspace, report *Report) error {
	tasks, err := c.store.ListTasksByWorkspace(ctx, ws.ID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	if err := c.reapStaleTasks(ctx, tasks, report); err != nil {
		return err
	}

	if winner := NextDispatchable(tasks); winner != nil {
		if err := c.dispatchTask(ctx, ws, winner, report); err != nil {
			return err
		}
	}

	return c.promoteRecommendation(ctx, ws, report)
}

// reapStaleTasks is phase 1: halt workflows stuck IN_PROGRESS past the
// threshold. The conditional write keeps a concurrent run from halting
// the same task twice.
func (c *Coordinator) reapStaleTasks(ctx context.Context, tasks []*store.Task, report *Report) error {
	now := c.now().UTC()

	for _, t := range StaleTasks(tasks, now, c.opts.StaleTaskThreshold) {
		halted, err := c.store.TransitionWorkflowStatus(ctx, nil, t.ID,
			store.WorkflowStatusInProgress, store.WorkflowStatusHalted, &now)
		if err != nil {
			return fmt.Errorf("halt stale task %s: %w", t.ID, err)
		}
		if halted {
			report.TaskHalted()
			c.log.Info("halted stale task", "task_id", t.ID, "created_at", t.CreatedAt)
		}
	}

	return nil
}

// dispatchTask is phase 2: hand the winning task to the workflow
// service in live mode. A failed start moves the task to FAILED so it
// is not silently retried forever.
func (c *Coordinator) dispatchTask(ctx context.Context, ws *store.Workspace, task *store.Task, report *Report) error {
	correlationID, err := c.workflows.StartWorkflow(ctx, ws.ID, workflow.KindTaskExecution, map[string]string{
		"taskId": task.ID.String(),
		"mode":   "live",
	})
	if err != nil {
		now := c.now().UTC()
		if _, ferr := c.store.TransitionWorkflowStatus(ctx, nil, task.ID,
			task.WorkflowStatus, store.WorkflowStatusFailed, &now); ferr != nil {
			c.log.Error("failed to mark task failed", "task_id", task.ID, "error", ferr)
		}
		return fmt.Errorf("dispatch task %s: %w", task.ID, err)
	}

	started, err := c.store.TransitionWorkflowStatus(ctx, nil, task.ID,
		task.WorkflowStatus, store.WorkflowStatusInProgress, nil)
	if err != nil {
		return fmt.Errorf("mark task %s in progress: %w", task.ID, err)
	}
	if started {
		report.TaskDispatched()
		c.log.Info("dispatched task",
			"task_id", task.ID, "priority", task.Priority, "correlation_id", correlationID)
	}

	return nil
}

// promoteRecommendation is phase 3: accept at most one pending
// recommendation and synthesize a task from it. The conditional accept
// and the task insert commit together, so a retried trigger either
// finds the recommendation already accepted or loses the race cleanly.
func (c *Coordinator) promoteRecommendation(ctx context.Context, ws *store.Workspace, report *Report) error {
	recs, err := c.store.ListPendingRecommendations(ctx, ws.ID)
	if err != nil {
		return fmt.Errorf("list recommendations: %w", err)
	}

	rec := TopRecommendation(recs)
	if rec == nil {
		return nil
	}

	now := c.now().UTC()

	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	accepted, err := c.store.AcceptRecommendation(ctx, tx, rec.ID, c.opts.AcceptedBy, now)
	if err != nil {
		return fmt.Errorf("accept recommendation %s: %w", rec.ID, err)
	}
	if !accepted {
		// Another invocation got there first.
		return nil
	}

	task := &store.Task{
		ID:                uuid.New(),
		WorkspaceID:       ws.ID,
		Title:             rec.Title,
		Description:       rec.Description,
		Status:            store.TaskStatusInProgress,
		WorkflowStatus:    store.WorkflowStatusInProgress,
		Priority:          rec.Priority,
		SourceType:        store.SourceTaskCoordinator,
		WorkflowStartedAt: &now,
		CreatedAt:         now,
	}
	if err := c.store.CreateTask(ctx, tx, task); err != nil {
		return fmt.Errorf("create task for recommendation %s: %w", rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recommendation %s: %w", rec.ID, err)
	}

	report.TaskCreated()
	c.log.Info("promoted recommendation",
		"recommendation_id", rec.ID, "task_id", task.ID, "priority", rec.Priority)

	correlationID, err := c.workflows.StartWorkflow(ctx, ws.ID, workflow.KindTaskExecution, map[string]string{
		"taskId":           task.ID.String(),
		"recommendationId": rec.ID.String(),
		"mode":             "live",
	})
	if err != nil {
		failedAt := c.now().UTC()
		if _, ferr := c.store.TransitionWorkflowStatus(ctx, nil, task.ID,
			store.WorkflowStatusInProgress, store.WorkflowStatusFailed, &failedAt); ferr != nil {
			c.log.Error("failed to mark promoted task failed", "task_id", task.ID, "error", ferr)
		}
		return fmt.Errorf("start workflow for promoted task %s: %w", task.ID, err)
	}

	c.log.Info("started workflow for promoted task",
		"task_id", task.ID, "correlation_id", correlationID)

	return nil
}
