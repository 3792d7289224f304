package scheduler

import (
	"time"

	"github.com/google/uuid"

	"workplane/internal/store"
)

// Pure eligibility and priority rules. Keeping them free of I/O makes
// the selection logic testable without a database.

// CoordinatorEligible reports whether the task coordinator may process
// the workspace at all.
func CoordinatorEligible(ws *store.Workspace) bool {
	return ws.TasksEnabled
}

// PodRepairEligible reports whether the pod health scheduler may
// process the workspace: it needs pool credentials and a finalized
// container file configuration.
func PodRepairEligible(ws *store.Workspace) bool {
	return ws.PoolAPIKey != nil && *ws.PoolAPIKey != "" &&
		ws.ContainerConfigStatus == store.ContainerConfigFinalized
}

// StaleTasks returns the tasks whose workflow has been IN_PROGRESS
// since before now minus threshold. Already-halted tasks never match,
// which is what makes reaping idempotent.
func StaleTasks(tasks []*store.Task, now time.Time, threshold time.Duration) []*store.Task {
	cutoff := now.Add(-threshold)

	var stale []*store.Task
	for _, t := range tasks {
		if t.WorkflowStatus == store.WorkflowStatusInProgress && t.CreatedAt.Before(cutoff) {
			stale = append(stale, t)
		}
	}
	return stale
}

// NextDispatchable selects the single task the coordinator may dispatch
// this run: TODO, system-dispatchable provenance, and no unmet direct
// dependency. Highest priority wins, ties broken by earliest creation.
// Returns nil when no task qualifies.
func NextDispatchable(tasks []*store.Task) *store.Task {
	byID := make(map[uuid.UUID]*store.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var winner *store.Task
	for _, t := range tasks {
		if t.Status != store.TaskStatusTodo || t.SourceType != store.SourceTaskCoordinator {
			continue
		}
		if !dependenciesSatisfied(t, byID) {
			continue
		}
		if winner == nil || ranksBefore(t.Priority, t.CreatedAt, winner.Priority, winner.CreatedAt) {
			winner = t
		}
	}
	return winner
}

// dependenciesSatisfied checks every direct prerequisite. A missing
// prerequisite id counts as satisfied; only the direct references are
// checked, not the transitive closure.
func dependenciesSatisfied(t *store.Task, byID map[uuid.UUID]*store.Task) bool {
	for _, depID := range t.DependsOnTaskIDs {
		if dep, ok := byID[depID]; ok && dep.Status.Blocking() {
			return false
		}
	}
	return true
}

// TopRecommendation selects the single recommendation to promote this
// run using the same priority order and tie-break as task dispatch.
// Returns nil when none is pending.
func TopRecommendation(recs []*store.Recommendation) *store.Recommendation {
	var top *store.Recommendation
	for _, r := range recs {
		if r.Status != store.RecommendationPending {
			continue
		}
		if top == nil || ranksBefore(r.Priority, r.CreatedAt, top.Priority, top.CreatedAt) {
			top = r
		}
	}
	return top
}

// ranksBefore implements the total order CRITICAL > HIGH > MEDIUM > LOW
// with earliest creation time as the tie-break.
func ranksBefore(p store.Priority, created time.Time, otherP store.Priority, otherCreated time.Time) bool {
	if p.Rank() != otherP.Rank() {
		return p.Rank() < otherP.Rank()
	}
	return created.Before(otherCreated)
}
