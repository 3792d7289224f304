package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"workplane/internal/store"
	"workplane/internal/workflow"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock transaction
type fakeTx struct{}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

// fakeStore is a stateful in-memory store. State transitions follow the
// same conditional-write semantics as the postgres implementation so
// idempotency can be exercised end to end.
type fakeStore struct {
	mu sync.Mutex

	workspaces []*store.Workspace
	tasks      []*store.Task
	recs       []*store.Recommendation
	runs       []*store.WorkflowRun

	listWorkspacesErr error
	listTasksErr      map[uuid.UUID]error
	createTaskErr     error
	countRunsErr      error

	// onListTasks fires at the start of each workspace's task listing.
	onListTasks func(workspaceID uuid.UUID)
}

func (f *fakeStore) BeginTx(ctx context.Context) (store.Tx, error) {
	return &fakeTx{}, nil
}

func (f *fakeStore) ListWorkspaces(ctx context.Context) ([]*store.Workspace, error) {
	if f.listWorkspacesErr != nil {
		return nil, f.listWorkspacesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.Workspace(nil), f.workspaces...), nil
}

func (f *fakeStore) ListTasksByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*store.Task, error) {
	if f.onListTasks != nil {
		f.onListTasks(workspaceID)
	}
	if err := f.listTasksErr[workspaceID]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var tasks []*store.Task
	for _, t := range f.tasks {
		if t.WorkspaceID == workspaceID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (f *fakeStore) CreateTask(ctx context.Context, tx store.DBTransaction, task *store.Task) error {
	if f.createTaskErr != nil {
		return f.createTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeStore) TransitionWorkflowStatus(ctx context.Context, tx store.DBTransaction, taskID uuid.UUID, from, to store.WorkflowStatus, completedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tasks {
		if t.ID == taskID && t.WorkflowStatus == from {
			t.WorkflowStatus = to
			t.WorkflowCompletedAt = completedAt
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListPendingRecommendations(ctx context.Context, workspaceID uuid.UUID) ([]*store.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var recs []*store.Recommendation
	for _, r := range f.recs {
		if r.WorkspaceID == workspaceID && r.Status == store.RecommendationPending {
			recs = append(recs, r)
		}
	}
	return recs, nil
}

func (f *fakeStore) AcceptRecommendation(ctx context.Context, tx store.DBTransaction, id uuid.UUID, acceptedBy string, acceptedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.recs {
		if r.ID == id && r.Status == store.RecommendationPending {
			r.Status = store.RecommendationAccepted
			r.AcceptedAt = &acceptedAt
			r.AcceptedBy = &acceptedBy
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountRunsByType(ctx context.Context, workspaceID uuid.UUID, runType store.WorkflowRunType) (int64, error) {
	if f.countRunsErr != nil {
		return 0, f.countRunsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, r := range f.runs {
		if r.WorkspaceID == workspaceID && r.Type == runType {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) LatestRunByType(ctx context.Context, workspaceID uuid.UUID, runType store.WorkflowRunType) (*store.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *store.WorkflowRun
	for _, r := range f.runs {
		if r.WorkspaceID != workspaceID || r.Type != runType {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeStore) CreateWorkflowRun(ctx context.Context, tx store.DBTransaction, run *store.WorkflowRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) UpdateWorkflowRunStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.WorkflowStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.runs {
		if r.ID == id {
			r.Status = status
		}
	}
	return nil
}

func (f *fakeStore) taskByID(id uuid.UUID) *store.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (f *fakeStore) tasksBySource(source store.SourceType) []*store.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tasks []*store.Task
	for _, t := range f.tasks {
		if t.SourceType == source {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// startCall records one StartWorkflow invocation.
type startCall struct {
	WorkspaceID uuid.UUID
	Kind        workflow.Kind
	Params      map[string]string
}

type fakeWorkflows struct {
	mu sync.Mutex

	startCalls []startCall
	startErr   error

	statusResp workflow.Status
	statusErr  error
}

func (f *fakeWorkflows) StartWorkflow(ctx context.Context, workspaceID uuid.UUID, kind workflow.Kind, params map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.startErr != nil {
		return "", f.startErr
	}
	f.startCalls = append(f.startCalls, startCall{WorkspaceID: workspaceID, Kind: kind, Params: params})
	return uuid.New().String(), nil
}

func (f *fakeWorkflows) WorkflowStatus(ctx context.Context, correlationID string) (workflow.Status, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.statusResp, nil
}

func (f *fakeWorkflows) callsOfKind(kind workflow.Kind) []startCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []startCall
	for _, c := range f.startCalls {
		if c.Kind == kind {
			calls = append(calls, c)
		}
	}
	return calls
}

type fakePool struct {
	mu sync.Mutex

	status    *workflow.PoolStatus
	statusErr error

	pods    []workflow.Pod
	podsErr error

	restartCalls int
	restartErr   error
}

func (f *fakePool) PoolStatus(ctx context.Context, ws *store.Workspace) (*workflow.PoolStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakePool) PoolPods(ctx context.Context, ws *store.Workspace) ([]workflow.Pod, error) {
	if f.podsErr != nil {
		return nil, f.podsErr
	}
	return f.pods, nil
}

func (f *fakePool) RestartStaklink(ctx context.Context, ws *store.Workspace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restartErr != nil {
		return f.restartErr
	}
	f.restartCalls++
	return nil
}

type fakeProber struct {
	processes    []workflow.Process
	processesErr error

	reachable   bool
	frontendURL string
	probeErr    error
}

func (f *fakeProber) Processes(ctx context.Context, pod workflow.Pod) ([]workflow.Process, error) {
	if f.processesErr != nil {
		return nil, f.processesErr
	}
	return f.processes, nil
}

func (f *fakeProber) FrontendReachable(ctx context.Context, pod workflow.Pod) (bool, string, error) {
	if f.probeErr != nil {
		return false, f.frontendURL, f.probeErr
	}
	return f.reachable, f.frontendURL, nil
}

func strPtr(s string) *string {
	return &s
}

func eligibleWorkspace() *store.Workspace {
	return &store.Workspace{
		ID:                    uuid.New(),
		Name:                  "Acme",
		Subdomain:             "acme",
		TasksEnabled:          true,
		PoolAPIKey:            strPtr("pk_live"),
		ContainerConfigStatus: store.ContainerConfigFinalized,
		CreatedAt:             time.Now().UTC(),
	}
}
