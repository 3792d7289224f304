// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workplane/internal/controller/handlers"
	"workplane/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr, cronSecret string, db handlers.Pinger, coordinator, podHealth handlers.Runner) *Server {
	h := handlers.New(db, coordinator, podHealth)
	cronAuth := middleware.CronAuth(cronSecret)
	// One trigger per second with room for a retry is plenty for a
	// cron caller.
	rateLimit := middleware.RateLimit(1, 2)

	mux := http.NewServeMux()

	// Cron triggers. External schedulers hit these on a fixed cadence;
	// the handlers are idempotent so an overlapping or repeated trigger
	// is safe.
	mux.Handle("GET /cron/task-coordinator", cronAuth(rateLimit(http.HandlerFunc(h.TaskCoordinator))))
	mux.Handle("GET /cron/pod-repair", cronAuth(rateLimit(http.HandlerFunc(h.PodRepair))))

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// A scheduler pass over many workspaces can take a while;
			// the write timeout has to cover a full run.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
