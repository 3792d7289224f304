package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestInitMetrics_GaugeAppearsInScrape(t *testing.T) {
	shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	if err := RegisterPendingRecommendations(func(ctx context.Context) (int64, error) {
		return 7, nil
	}); err != nil {
		t.Fatalf("RegisterPendingRecommendations failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("scrape returned status %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "workplane_pending_recommendations") {
		t.Errorf("gauge missing from scrape output:\n%s", body)
	}
	if !strings.Contains(body, "7") {
		t.Errorf("gauge value missing from scrape output:\n%s", body)
	}
}

func TestInitTracer_LazyConnection(t *testing.T) {
	// gRPC connects lazily, so an unreachable collector must not fail
	// startup.
	ctx := context.Background()

	shutdown, err := InitTracer(ctx, "workplane-controller", "localhost:4317")
	if err != nil {
		t.Logf("InitTracer returned error (may be expected in test environment): %v", err)
		return
	}
	if shutdown == nil {
		t.Fatal("expected shutdown function to be non-nil")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(shutdownCtx)
}
