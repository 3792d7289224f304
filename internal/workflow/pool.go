package workflow

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"workplane/internal/store"
)

// PoolClient is the HTTP implementation of Pool.
type PoolClient struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewPoolClient creates a Pool client for the pool-management service.
func NewPoolClient(baseURL string, timeout time.Duration, retry RetryPolicy) *PoolClient {
	return &PoolClient{
		baseURL:    trimSlash(baseURL),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// poolHeaders carries the workspace's pool credentials.
func poolHeaders(ws *store.Workspace) (map[string]string, error) {
	if ws.PoolAPIKey == nil {
		return nil, fmt.Errorf("workspace %s has no pool credentials", ws.ID)
	}
	return map[string]string{"X-Pool-Api-Key": *ws.PoolAPIKey}, nil
}

// PoolStatus fetches the workspace's pool snapshot.
func (c *PoolClient) PoolStatus(ctx context.Context, ws *store.Workspace) (*PoolStatus, error) {
	headers, err := poolHeaders(ws)
	if err != nil {
		return nil, err
	}

	var status PoolStatus
	url := fmt.Sprintf("%s/pools/%s/status", c.baseURL, ws.ID)
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		return doJSON(ctx, c.httpClient, http.MethodGet, url, headers, nil, &status)
	})
	if err != nil {
		return nil, fmt.Errorf("pool status for workspace %s: %w", ws.ID, err)
	}

	return &status, nil
}

// PoolPods lists the pods backing the workspace.
func (c *PoolClient) PoolPods(ctx context.Context, ws *store.Workspace) ([]Pod, error) {
	headers, err := poolHeaders(ws)
	if err != nil {
		return nil, err
	}

	var pods []Pod
	url := fmt.Sprintf("%s/pools/%s/workspaces", c.baseURL, ws.ID)
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		return doJSON(ctx, c.httpClient, http.MethodGet, url, headers, nil, &pods)
	})
	if err != nil {
		return nil, fmt.Errorf("pool pods for workspace %s: %w", ws.ID, err)
	}

	return pods, nil
}

type staklinkResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// RestartStaklink starts the companion proxy process on the workspace's pod.
func (c *PoolClient) RestartStaklink(ctx context.Context, ws *store.Workspace) error {
	headers, err := poolHeaders(ws)
	if err != nil {
		return err
	}

	var resp staklinkResponse
	url := fmt.Sprintf("%s/pools/%s/staklink/restart", c.baseURL, ws.ID)
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		return doJSON(ctx, c.httpClient, http.MethodPost, url, headers, nil, &resp)
	})
	if err != nil {
		return fmt.Errorf("restart staklink for workspace %s: %w", ws.ID, err)
	}

	if !resp.OK {
		return fmt.Errorf("staklink restart rejected for workspace %s: %s", ws.ID, resp.Message)
	}

	return nil
}
