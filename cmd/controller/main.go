// Package main is the entry point for the workplane controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workplane/internal/config"
	"workplane/internal/controller"
	"workplane/internal/logger"
	"workplane/internal/observability"
	"workplane/internal/scheduler"
	"workplane/internal/store/postgres"
	"workplane/internal/workflow"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.Close()

	if *migrateFlag {
		log.Println("Running database migrations...")
		if err := postgres.Migrate(store.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "workplane-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Queried only when /metrics is scraped.
	if err := observability.RegisterPendingRecommendations(func(ctx context.Context) (int64, error) {
		return store.CountPendingRecommendations(ctx)
	}); err != nil {
		log.Printf("Failed to register pending recommendations metric: %v", err)
	}

	slogger := logger.New()
	retry := workflow.RetryPolicy{MaxAttempts: cfg.RetryMaxAttempts, Delay: cfg.RetryDelay}
	workflows := workflow.NewClient(cfg.WorkflowServiceURL, cfg.ExternalCallTimeout, retry)
	pool := workflow.NewPoolClient(cfg.PoolServiceURL, cfg.ExternalCallTimeout, retry)
	prober := workflow.NewPodProber(cfg.PodBaseDomain, cfg.ExternalCallTimeout)

	coordinator := scheduler.NewCoordinator(store, workflows, scheduler.CoordinatorOptions{
		Enabled:            cfg.TaskCoordinatorEnabled,
		StaleTaskThreshold: cfg.StaleTaskThreshold,
		Concurrency:        cfg.SchedulerConcurrency,
	}, slogger)

	podHealth := scheduler.NewPodHealth(store, workflows, pool, prober, scheduler.PodHealthOptions{
		Enabled:           cfg.PodRepairEnabled,
		MaxRepairAttempts: cfg.MaxRepairAttempts,
		Concurrency:       cfg.SchedulerConcurrency,
	}, slogger)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, cfg.CronSecret, store, coordinator, podHealth)

	go func() {
		log.Printf("WorkPlane Controller starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down controller...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
