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

// PodHealthStore combines the store interfaces the pod health scheduler needs.
type PodHealthStore interface {
	store.WorkspaceStore
	store.WorkflowRunStore
}

// PodHealthOptions configures a PodHealth scheduler.
type PodHealthOptions struct {
	// Enabled is the scheduler-level feature flag.
	Enabled bool

	// MaxRepairAttempts caps how many POD_REPAIR workflow runs a
	// workspace may accumulate before it is skipped. Default 10.
	MaxRepairAttempts int

	// Concurrency bounds how many workspaces are processed in parallel.
	Concurrency int
}

// PodHealth is the pod health scheduler. Each Run evaluates every
// eligible workspace through the eligibility -> health-check ->
// escalation pipeline and triggers exactly one of: repair, reconnect,
// validation, or a labeled skip.
type PodHealth struct {
	store     PodHealthStore
	workflows workflow.Service
	pool      workflow.Pool
	prober    workflow.Prober
	opts      PodHealthOptions
	log       *slog.Logger

	now func() time.Time
}

// NewPodHealth creates a pod health scheduler.
func NewPodHealth(s PodHealthStore, workflows workflow.Service, pool workflow.Pool, prober workflow.Prober, opts PodHealthOptions, log *slog.Logger) *PodHealth {
	if opts.MaxRepairAttempts <= 0 {
		opts.MaxRepairAttempts = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &PodHealth{
		store:     s,
		workflows: workflows,
		pool:      pool,
		prober:    prober,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one pod health invocation and returns the aggregated
// report.
func (p *PodHealth) Run(ctx context.Context) (*Report, error) {
	if !p.opts.Enabled {
		return NewDisabledReport(), nil
	}

	tracer := otel.Tracer("pod-health")
	ctx, span := tracer.Start(ctx, "pod_health_run")
	defer span.End()

	workspaces, err := p.store.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate workspaces: %w", err)
	}

	report := NewReport()
	forEachWorkspace(ctx, p.opts.Concurrency, workspaces, func(ctx context.Context, ws *store.Workspace) {
		if !PodRepairEligible(ws) {
			// Missing credentials or unfinished config is expected, not
			// exceptional: the workspace is not counted as processed.
			return
		}
		report.WorkspaceProcessed()
		runIsolated(ctx, p.log, report, ws, func(ctx context.Context) error {
			return p.evaluateWorkspace(ctx, ws, report)
		})
	})

	span.SetAttributes(
		attribute.Int("workspaces.enumerated", len(workspaces)),
		attribute.Int("workspaces.processed", report.ProcessedCount()),
		attribute.Int("errors", report.ErrorCount()),
	)

	return report, nil
}

// evaluateWorkspace walks one workspace through the pipeline. Every
// return path produces exactly one outcome on the report.
func (p *PodHealth) evaluateWorkspace(ctx context.Context, ws *store.Workspace, report *Report) error {
	attempts, err := p.store.CountRunsByType(ctx, ws.ID, store.WorkflowRunPodRepair)
	if err != nil {
		return fmt.Errorf("count repair attempts: %w", err)
	}
	if attempts >= int64(p.opts.MaxRepairAttempts) {
		report.Skipped(SkipMaxAttemptsReached)
		p.log.Warn("repair attempt budget exhausted",
			"workspace_id", ws.ID, "attempts", attempts)
		return nil
	}

	inFlight, err := p.repairInFlight(ctx, ws)
	if err != nil {
		return err
	}
	if inFlight {
		report.Skipped(SkipWorkflowInProgress)
		return nil
	}

	snapshot, err := p.pool.PoolStatus(ctx, ws)
	if err != nil {
		return fmt.Errorf("pool snapshot: %w", err)
	}
	if snapshot.Healthy() {
		report.RunningPods()
		return nil
	}

	pods, err := p.pool.PoolPods(ctx, ws)
	if err != nil {
		return fmt.Errorf("list pods: %w", err)
	}
	pod, found := selectRepairPod(pods)
	if !found {
		report.Skipped(SkipNoFailedProcesses)
		return nil
	}

	processes, err := p.prober.Processes(ctx, pod)
	if err != nil {
		// The introspection endpoint itself is unreachable: a
		// lightweight reconnect, not a full repair.
		p.log.Info("process list unreachable, restarting staklink",
			"workspace_id", ws.ID, "pod", pod.Subdomain, "error", err)
		return p.reconnect(ctx, ws, report)
	}

	// A missing staklink severs only the control channel; the restart
	// re-establishes it without recreating the pod.
	if !hasStaklink(processes) {
		p.log.Info("staklink process missing, restarting",
			"workspace_id", ws.ID, "pod", pod.Subdomain)
		return p.reconnect(ctx, ws, report)
	}

	reachable, frontendURL, err := p.prober.FrontendReachable(ctx, pod)
	if err != nil {
		return fmt.Errorf("frontend probe: %w", err)
	}
	if !reachable {
		return p.triggerRepair(ctx, ws, pod, frontendURL, report)
	}

	// Both checks pass: issue a lightweight validation, no repair.
	if _, err := p.workflows.StartWorkflow(ctx, ws.ID, workflow.KindPodValidation, map[string]string{
		"subdomain":   pod.Subdomain,
		"frontendUrl": frontendURL,
	}); err != nil {
		return fmt.Errorf("start validation: %w", err)
	}
	report.ValidationTriggered()
	return nil
}

// repairInFlight polls the status of the latest POD_REPAIR run. A run
// still in progress short-circuits the workspace; a finished one has
// its audit row settled so the next invocation sees fresh state.
func (p *PodHealth) repairInFlight(ctx context.Context, ws *store.Workspace) (bool, error) {
	latest, err := p.store.LatestRunByType(ctx, ws.ID, store.WorkflowRunPodRepair)
	if err != nil {
		return false, fmt.Errorf("latest repair run: %w", err)
	}
	if latest == nil || latest.Status != store.WorkflowStatusInProgress {
		return false, nil
	}

	status, err := p.workflows.WorkflowStatus(ctx, latest.CorrelationID)
	if err != nil {
		return false, fmt.Errorf("poll repair workflow %s: %w", latest.CorrelationID, err)
	}

	switch status {
	case workflow.StatusCompleted:
		if err := p.store.UpdateWorkflowRunStatus(ctx, nil, latest.ID, store.WorkflowStatusCompleted); err != nil {
			return false, fmt.Errorf("settle repair run %s: %w", latest.ID, err)
		}
		return false, nil
	case workflow.StatusFailed:
		if err := p.store.UpdateWorkflowRunStatus(ctx, nil, latest.ID, store.WorkflowStatusFailed); err != nil {
			return false, fmt.Errorf("settle repair run %s: %w", latest.ID, err)
		}
		return false, nil
	default:
		return true, nil
	}
}

// reconnect performs the lightweight staklink restart.
func (p *PodHealth) reconnect(ctx context.Context, ws *store.Workspace, report *Report) error {
	if err := p.pool.RestartStaklink(ctx, ws); err != nil {
		return fmt.Errorf("restart staklink: %w", err)
	}
	report.StaklinkRestarted()
	return nil
}

// triggerRepair starts a full repair workflow and records the audit
// row that feeds the max-attempts policy.
func (p *PodHealth) triggerRepair(ctx context.Context, ws *store.Workspace, pod workflow.Pod, frontendURL string, report *Report) error {
	runID := uuid.New()

	correlationID, err := p.workflows.StartWorkflow(ctx, ws.ID, workflow.KindPodRepair, map[string]string{
		"subdomain":   pod.Subdomain,
		"frontendUrl": frontendURL,
		"repairRunId": runID.String(),
	})
	if err != nil {
		return fmt.Errorf("start repair workflow: %w", err)
	}

	run := &store.WorkflowRun{
		ID:            runID,
		WorkspaceID:   ws.ID,
		Type:          store.WorkflowRunPodRepair,
		Status:        store.WorkflowStatusInProgress,
		CorrelationID: correlationID,
		CreatedAt:     p.now().UTC(),
	}
	if err := p.store.CreateWorkflowRun(ctx, nil, run); err != nil {
		return fmt.Errorf("record repair run: %w", err)
	}

	report.RepairTriggered()
	p.log.Info("triggered pod repair",
		"workspace_id", ws.ID, "pod", pod.Subdomain, "correlation_id", correlationID)
	return nil
}

// selectRepairPod picks the first pod not in a running state.
func selectRepairPod(pods []workflow.Pod) (workflow.Pod, bool) {
	for _, pod := range pods {
		if !pod.Running() {
			return pod, true
		}
	}
	return workflow.Pod{}, false
}

// hasStaklink reports whether the companion proxy shows up in the
// process list with a running status.
func hasStaklink(processes []workflow.Process) bool {
	for _, proc := range processes {
		if proc.Name == workflow.StaklinkProcessName && proc.Status == "running" {
			return true
		}
	}
	return false
}
