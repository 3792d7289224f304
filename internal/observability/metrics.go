// Package observability provides OpenTelemetry instrumentation for tracing and metrics.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a
// Prometheus exporter. Metrics registered through the global meter are
// served by the controller's /metrics endpoint. The returned shutdown
// function should be called on application exit.
func InitMetrics() (func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// SchedulerMeter returns the meter the schedulers register their
// instruments on.
func SchedulerMeter() metric.Meter {
	return otel.Meter("workplane/scheduler")
}

// RegisterPendingRecommendations registers an observable gauge that
// reports how many recommendations are waiting for promotion, summed
// over all workspaces. count is polled at scrape time.
func RegisterPendingRecommendations(count func(context.Context) (int64, error)) error {
	meter := SchedulerMeter()

	gauge, err := meter.Int64ObservableGauge("workplane_pending_recommendations")
	if err != nil {
		return fmt.Errorf("failed to create gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		n, err := count(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(gauge, n)
		return nil
	}, gauge)
	if err != nil {
		return fmt.Errorf("failed to register callback: %w", err)
	}
	return nil
}
