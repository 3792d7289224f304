package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"workplane/internal/store"
)

// runIsolated runs one workspace's processing inside a failure
// boundary. Errors and panics are captured into the run report instead
// of propagating, so one workspace can never abort the run for others.
func runIsolated(ctx context.Context, log *slog.Logger, report *Report, ws *store.Workspace, fn func(context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic while processing workspace: %v", rec)
			report.AddError(ws.ID, err)
			log.Error("workspace processing panicked",
				"workspace_id", ws.ID, "panic", rec)
		}
	}()

	if err := fn(ctx); err != nil {
		report.AddError(ws.ID, err)
		log.Error("workspace processing failed",
			"workspace_id", ws.ID, "error", err)
	}
}

// forEachWorkspace applies fn to every workspace with bounded
// concurrency. With concurrency <= 1 processing is sequential. A
// cancelled context stops dispatching new workspaces; in-flight ones
// finish, yielding a partial report.
func forEachWorkspace(ctx context.Context, concurrency int, workspaces []*store.Workspace, fn func(context.Context, *store.Workspace)) {
	if concurrency <= 1 {
		for _, ws := range workspaces {
			if ctx.Err() != nil {
				return
			}
			fn(ctx, ws)
		}
		return
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, ws := range workspaces {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(ws *store.Workspace) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, ws)
		}(ws)
	}

	wg.Wait()
}
