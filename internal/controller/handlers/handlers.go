// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"workplane/internal/scheduler"
	"workplane/pkg/api"
)

// Runner is a scheduler that can be triggered by a cron endpoint.
// Both the task coordinator and the pod health scheduler satisfy it.
type Runner interface {
	Run(ctx context.Context) (*scheduler.Report, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	db          Pinger
	coordinator Runner
	podHealth   Runner
}

// New creates a new Handlers instance.
func New(db Pinger, coordinator, podHealth Runner) *Handlers {
	return &Handlers{db: db, coordinator: coordinator, podHealth: podHealth}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
