package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/jobsift/jobsift/internal/model"
)

const apifyBaseURL = "https://api.apify.com/v2"

// Terminal actor-run states. Polling stops on any of these.
var apifyTerminalStates = map[string]bool{
	"SUCCEEDED": true,
	"FAILED":    true,
	"ABORTED":   true,
	"TIMED-OUT": true,
}

// ApifyClient talks to the Apify platform: it pulls finished actor-run
// datasets and, for the interactive trigger path, starts an actor and polls
// until the run reaches a terminal state.
type ApifyClient struct {
	token        string
	rest         *resty.Client
	pollInterval time.Duration
}

// NewApifyClient creates an Apify API client.
func NewApifyClient(token string, timeout time.Duration) *ApifyClient {
	rest := resty.New().
		SetBaseURL(apifyBaseURL).
		SetTimeout(timeout).
		SetQueryParam("token", token)
	return &ApifyClient{
		token:        token,
		rest:         rest,
		pollInterval: 10 * time.Second,
	}
}

// DatasetItems fetches all items of an actor-run output dataset as raw JSON.
// Item shapes vary per actor, so callers extract fields with gjson.
func (c *ApifyClient) DatasetItems(ctx context.Context, datasetID string) ([]gjson.Result, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("format", "json").
		Get("/datasets/" + datasetID + "/items")
	if err != nil {
		return nil, fmt.Errorf("apify dataset %s: %w", datasetID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode(),
			RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After")),
			Err:        fmt.Errorf("apify dataset %s: unexpected status %d", datasetID, resp.StatusCode()),
		}
	}

	parsed := gjson.ParseBytes(resp.Body())
	if !parsed.IsArray() {
		return nil, fmt.Errorf("apify dataset %s: expected JSON array", datasetID)
	}
	return parsed.Array(), nil
}

// RunActor starts an actor with the given JSON input and returns the run id.
// It does not wait for completion.
func (c *ApifyClient) RunActor(ctx context.Context, actorID string, input map[string]any) (string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(input).
		Post("/acts/" + actorID + "/runs")
	if err != nil {
		return "", fmt.Errorf("apify run actor %s: %w", actorID, err)
	}
	if resp.StatusCode() != 201 && resp.StatusCode() != 200 {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("apify run actor %s: unexpected status %d", actorID, resp.StatusCode()),
		}
	}

	runID := gjson.GetBytes(resp.Body(), "data.id").String()
	if runID == "" {
		return "", fmt.Errorf("apify run actor %s: response carried no run id", actorID)
	}
	return runID, nil
}

// RunStatus describes one actor run.
type RunStatus struct {
	ID        string
	Status    string
	DatasetID string
}

// GetRun fetches the current status of an actor run.
func (c *ApifyClient) GetRun(ctx context.Context, runID string) (*RunStatus, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get("/actor-runs/" + runID)
	if err != nil {
		return nil, fmt.Errorf("apify run %s: %w", runID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("apify run %s: unexpected status %d", runID, resp.StatusCode()),
		}
	}

	data := gjson.GetBytes(resp.Body(), "data")
	return &RunStatus{
		ID:        data.Get("id").String(),
		Status:    data.Get("status").String(),
		DatasetID: data.Get("defaultDatasetId").String(),
	}, nil
}

// WaitForRun polls an actor run until it reaches a terminal state or the
// bounded timeout elapses. Returns the final status; a non-SUCCEEDED
// terminal state is reported as an error.
func (c *ApifyClient) WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*RunStatus, error) {
	deadline := time.Now().Add(timeout)

	for {
		status, err := c.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if apifyTerminalStates[status.Status] {
			if status.Status != "SUCCEEDED" {
				return status, fmt.Errorf("apify run %s ended %s", runID, status.Status)
			}
			return status, nil
		}
		if time.Now().After(deadline) {
			return status, fmt.Errorf("apify run %s still %s after %v", runID, status.Status, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("apify run %s wait cancelled: %w", runID, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
