package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/workplane")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 6171 {
		t.Errorf("got port %d, want 6171", cfg.HTTPPort)
	}
	if cfg.StaleTaskThreshold != 24*time.Hour {
		t.Errorf("got stale threshold %v, want 24h", cfg.StaleTaskThreshold)
	}
	if cfg.MaxRepairAttempts != 10 {
		t.Errorf("got max repair attempts %d, want 10", cfg.MaxRepairAttempts)
	}
	if cfg.SchedulerConcurrency != 1 {
		t.Errorf("got concurrency %d, want 1", cfg.SchedulerConcurrency)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("got retry attempts %d, want 3", cfg.RetryMaxAttempts)
	}
	if cfg.TaskCoordinatorEnabled {
		t.Error("task coordinator should be disabled by default")
	}
	if cfg.PodRepairEnabled {
		t.Error("pod repair should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/workplane")
	t.Setenv("PORT", "9090")
	t.Setenv("TASK_COORDINATOR_ENABLED", "true")
	t.Setenv("POD_REPAIR_ENABLED", "1")
	t.Setenv("STALE_TASK_THRESHOLD", "6h")
	t.Setenv("MAX_REPAIR_ATTEMPTS", "5")
	t.Setenv("SCHEDULER_CONCURRENCY", "4")
	t.Setenv("EXTERNAL_CALL_TIMEOUT", "5s")
	t.Setenv("CRON_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("got port %d, want 9090", cfg.HTTPPort)
	}
	if !cfg.TaskCoordinatorEnabled || !cfg.PodRepairEnabled {
		t.Error("feature flags not picked up")
	}
	if cfg.StaleTaskThreshold != 6*time.Hour {
		t.Errorf("got stale threshold %v, want 6h", cfg.StaleTaskThreshold)
	}
	if cfg.MaxRepairAttempts != 5 {
		t.Errorf("got max repair attempts %d, want 5", cfg.MaxRepairAttempts)
	}
	if cfg.SchedulerConcurrency != 4 {
		t.Errorf("got concurrency %d, want 4", cfg.SchedulerConcurrency)
	}
	if cfg.ExternalCallTimeout != 5*time.Second {
		t.Errorf("got call timeout %v, want 5s", cfg.ExternalCallTimeout)
	}
	if cfg.CronSecret != "s3cret" {
		t.Errorf("got cron secret %q", cfg.CronSecret)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-port"},
		{"bad threshold", "STALE_TASK_THRESHOLD", "yesterday"},
		{"bad attempts", "MAX_REPAIR_ATTEMPTS", "ten"},
		{"bad concurrency", "SCHEDULER_CONCURRENCY", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/workplane")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
