package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"workplane/internal/logger"
	"workplane/pkg/api"
)

// TaskCoordinator handles GET /cron/task-coordinator.
// Each invocation is one full coordinator pass over every workspace.
// Per-workspace failures are reported in the body, not as an HTTP
// error: only a failure to enumerate workspaces produces a 500.
func (h *Handlers) TaskCoordinator(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithRunID(r.Context(), uuid.New().String())

	report, err := h.coordinator.Run(ctx)
	if err != nil {
		h.respondJson(w, http.StatusInternalServerError, api.TaskCoordinatorResponse{
			Success:   false,
			Message:   "Task coordinator run failed",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	h.respondJson(w, http.StatusOK, report.TaskCoordinatorResponse())
}

// PodRepair handles GET /cron/pod-repair.
func (h *Handlers) PodRepair(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithRunID(r.Context(), uuid.New().String())

	report, err := h.podHealth.Run(ctx)
	if err != nil {
		h.respondJson(w, http.StatusInternalServerError, api.PodRepairResponse{
			Success:   false,
			Message:   "Pod repair run failed",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	h.respondJson(w, http.StatusOK, report.PodRepairResponse())
}
