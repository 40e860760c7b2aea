package fixtures

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/prospector/internal/jobs"
	"github.com/okian/prospector/internal/pipeline"
)

const pollInterval = 250 * time.Millisecond

// Driver exercises a running service over its HTTP API.
type Driver struct {
	baseURL string
	client  *http.Client
}

// NewDriver creates a driver for the service at baseURL.
func NewDriver(baseURL string, timeout time.Duration) *Driver {
	return &Driver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// RunPipeline triggers a full pipeline run and waits for a terminal job.
func (d *Driver) RunPipeline(ctx context.Context, deadline time.Duration) (jobs.Job, error) {
	resp, err := d.post(ctx, "/pipeline")
	if err != nil {
		return jobs.Job{}, err
	}

	var ack struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(resp, &ack); err != nil {
		return jobs.Job{}, fmt.Errorf("decoding trigger ack: %w", err)
	}

	var job jobs.Job
	probe := func(ctx context.Context) (bool, error) {
		j, err := d.getJob(ctx, ack.JobID)
		if err != nil {
			return false, err
		}
		job = j
		return j.Status.Terminal(), nil
	}

	ok, err := pipeline.WaitFor(ctx, pollInterval, deadline, probe)
	if err != nil {
		return jobs.Job{}, err
	}
	if !ok {
		return job, fmt.Errorf("job %s still %s after %s", ack.JobID, job.Status, deadline)
	}
	return job, nil
}

// Stats fetches the service's /stats document.
func (d *Driver) Stats(ctx context.Context) (map[string]any, error) {
	body, err := d.get(ctx, "/stats")
	if err != nil {
		return nil, err
	}
	var stats map[string]any
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}
	return stats, nil
}

func (d *Driver) getJob(ctx context.Context, id string) (jobs.Job, error) {
	body, err := d.get(ctx, "/jobs/"+id)
	if err != nil {
		return jobs.Job{}, err
	}
	var job jobs.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return jobs.Job{}, fmt.Errorf("decoding job: %w", err)
	}
	return job, nil
}

func (d *Driver) post(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return d.do(req)
}

func (d *Driver) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return d.do(req)
}

func (d *Driver) do(req *http.Request) ([]byte, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", req.URL.Path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, body)
	}
	return body, nil
}
