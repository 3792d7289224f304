package workflow

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// StaklinkProcessName is the companion proxy process every healthy pod
// must run.
const StaklinkProcessName = "staklink"

// PodProber reaches individual pods over their control URLs. Probe
// failures are health signals, not transient faults, so the prober
// deliberately does not retry.
type PodProber struct {
	// baseDomain is appended to the pod subdomain to form control URLs,
	// e.g. subdomain "ws-a1" + baseDomain "pods.example.dev".
	baseDomain string
	httpClient *http.Client
}

// NewPodProber creates a Prober for pods under the given base domain.
func NewPodProber(baseDomain string, timeout time.Duration) *PodProber {
	return &PodProber{
		baseDomain: baseDomain,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *PodProber) controlURL(pod Pod) string {
	return fmt.Sprintf("https://%s.%s", pod.Subdomain, p.baseDomain)
}

// Processes fetches the pod's process list from its introspection
// endpoint. An error means the endpoint itself is unreachable.
func (p *PodProber) Processes(ctx context.Context, pod Pod) ([]Process, error) {
	var processes []Process
	url := p.controlURL(pod) + "/api/processes"
	if err := doJSON(ctx, p.httpClient, http.MethodGet, url, nil, nil, &processes); err != nil {
		return nil, fmt.Errorf("process list for pod %s: %w", pod.Subdomain, err)
	}
	return processes, nil
}

// FrontendReachable probes the pod's frontend URL. Connection failures
// and server errors are reported as unreachable, not as errors.
func (p *PodProber) FrontendReachable(ctx context.Context, pod Pod) (bool, string, error) {
	url := p.controlURL(pod)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, url, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, url, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError, url, nil
}
