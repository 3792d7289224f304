package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"workplane/pkg/api"
)

// CronClient triggers the controller's cron endpoints.
type CronClient struct {
	BaseURL    string
	CronSecret string
	HTTPClient *http.Client
}

// NewCronClient creates a new client with the given base URL and secret.
func NewCronClient(baseURL, cronSecret string) *CronClient {
	return &CronClient{
		BaseURL:    baseURL,
		CronSecret: cronSecret,
		// A full scheduler pass can take minutes on a large install.
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// TriggerTaskCoordinator sends GET /cron/task-coordinator.
func (c *CronClient) TriggerTaskCoordinator() (*api.TaskCoordinatorResponse, error) {
	var result api.TaskCoordinatorResponse
	if err := c.trigger("/cron/task-coordinator", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TriggerPodRepair sends GET /cron/pod-repair.
func (c *CronClient) TriggerPodRepair() (*api.PodRepairResponse, error) {
	var result api.PodRepairResponse
	if err := c.trigger("/cron/pod-repair", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CronClient) trigger(path string, out interface{}) error {
	httpReq, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.CronSecret))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
