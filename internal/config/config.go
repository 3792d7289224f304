// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
// Schedulers receive the values they need through their own option
// structs; nothing below this package reads the environment directly.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Shared secret for the cron trigger endpoints
	CronSecret string

	// Feature flags, one per scheduler
	TaskCoordinatorEnabled bool
	PodRepairEnabled       bool

	// Tasks whose workflow has been in progress longer than this are halted
	StaleTaskThreshold time.Duration

	// Max POD_REPAIR workflow runs per workspace before the scheduler gives up
	MaxRepairAttempts int

	// Number of workspaces processed concurrently per run (1 = sequential)
	SchedulerConcurrency int

	// Base URLs of the external collaborators
	WorkflowServiceURL string
	PoolServiceURL     string

	// Domain suffix under which pod control endpoints are exposed,
	// e.g. subdomain "acme" on "pods.example.dev" probes
	// https://acme.pods.example.dev
	PodBaseDomain string

	// Timeout applied to every single external call
	ExternalCallTimeout time.Duration

	// Bounded retry policy for external calls
	RetryMaxAttempts int
	RetryDelay       time.Duration

	// OTLP collector endpoint for tracing
	OTELEndpoint string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbUrl := os.Getenv("DATABASE_URL")
	if dbUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	port, err := intEnv("PORT", 6171)
	if err != nil {
		return nil, err
	}

	staleThreshold, err := durationEnv("STALE_TASK_THRESHOLD", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	maxAttempts, err := intEnv("MAX_REPAIR_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}

	concurrency, err := intEnv("SCHEDULER_CONCURRENCY", 1)
	if err != nil {
		return nil, err
	}

	callTimeout, err := durationEnv("EXTERNAL_CALL_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	retryAttempts, err := intEnv("RETRY_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	retryDelay, err := durationEnv("RETRY_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:            dbUrl,
		HTTPPort:               port,
		CronSecret:             os.Getenv("CRON_SECRET"),
		TaskCoordinatorEnabled: boolEnv("TASK_COORDINATOR_ENABLED"),
		PodRepairEnabled:       boolEnv("POD_REPAIR_ENABLED"),
		StaleTaskThreshold:     staleThreshold,
		MaxRepairAttempts:      maxAttempts,
		SchedulerConcurrency:   concurrency,
		WorkflowServiceURL:     urlEnv("WORKFLOW_SERVICE_URL", "http://localhost:7233"),
		PoolServiceURL:         urlEnv("POOL_SERVICE_URL", "http://localhost:7080"),
		PodBaseDomain:          urlEnv("POD_BASE_DOMAIN", "pods.localhost"),
		ExternalCallTimeout:    callTimeout,
		RetryMaxAttempts:       retryAttempts,
		RetryDelay:             retryDelay,
		OTELEndpoint:           urlEnv("OTEL_ENDPOINT", "localhost:4317"),
	}, nil
}

func intEnv(name string, fallback int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func boolEnv(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

func urlEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
