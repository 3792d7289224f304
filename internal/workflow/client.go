package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewClient creates a Service client for the workflow-execution service.
func NewClient(baseURL string, timeout time.Duration, retry RetryPolicy) *Client {
	return &Client{
		baseURL:    trimSlash(baseURL),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

type startWorkflowRequest struct {
	WorkspaceID string            `json:"workspaceId"`
	Kind        string            `json:"kind"`
	Params      map[string]string `json:"params,omitempty"`
}

type startWorkflowResponse struct {
	OK            bool   `json:"ok"`
	CorrelationID string `json:"correlationId"`
	Message       string `json:"message,omitempty"`
}

// StartWorkflow asks the remote service to start a workflow and returns
// the correlation id. The call is retried per the client's policy.
func (c *Client) StartWorkflow(ctx context.Context, workspaceID uuid.UUID, kind Kind, params map[string]string) (string, error) {
	req := startWorkflowRequest{
		WorkspaceID: workspaceID.String(),
		Kind:        string(kind),
		Params:      params,
	}

	var resp startWorkflowResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		return doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/workflows", nil, req, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("start workflow %s for workspace %s: %w", kind, workspaceID, err)
	}

	if !resp.OK {
		return "", fmt.Errorf("workflow service rejected %s for workspace %s: %s", kind, workspaceID, resp.Message)
	}

	return resp.CorrelationID, nil
}

type workflowStatusResponse struct {
	Status Status `json:"status"`
}

// WorkflowStatus polls the status of a previously started workflow.
func (c *Client) WorkflowStatus(ctx context.Context, correlationID string) (Status, error) {
	var resp workflowStatusResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		return doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/workflows/"+correlationID, nil, nil, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("workflow status %s: %w", correlationID, err)
	}

	return resp.Status, nil
}

// doJSON performs one HTTP round trip with JSON encoding on both sides.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain a little of the body for the error message.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned %d: %s", method, url, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func trimSlash(url string) string {
	if len(url) > 0 && url[len(url)-1] == '/' {
		return url[:len(url)-1]
	}
	return url
}
