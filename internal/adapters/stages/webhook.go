// Package stages adapts external build, promote and sell services into
// pipeline stage collaborators. Each service is triggered over HTTP and
// polled until it reports completion or the deadline passes.
package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/internal/pipeline"
	"github.com/okian/prospector/pkg/logger"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 2 * time.Second
	defaultPollDeadline = 5 * time.Minute

	maxResponseBytes = 1 << 20
)

// ErrBadStatus indicates the stage service responded with a non-success
// HTTP status.
var ErrBadStatus = errors.New("unexpected stage service status")

// triggerRequest is the payload sent to start a stage.
type triggerRequest struct {
	Candidate model.Candidate   `json:"candidate"`
	Prior     model.StageOutput `json:"prior,omitempty"`
}

// statusResponse is the shape both the trigger and status endpoints answer
// with.
type statusResponse struct {
	TaskID  string         `json:"task_id"`
	State   string         `json:"state"`
	URL     string         `json:"url"`
	Details map[string]any `json:"details"`
}

func (r statusResponse) done() bool {
	return r.State == "completed" || r.State == "done"
}

func (r statusResponse) failed() bool {
	return r.State == "failed" || r.State == "error"
}

// Webhook is a pipeline stage backed by an external HTTP service. Run posts
// the candidate to the trigger URL and polls the status endpoint until the
// task finishes. A deadline that passes first yields an empty output, which
// the pipeline treats as a valid partial outcome.
type Webhook struct {
	name     string
	url      string
	client   *http.Client
	interval time.Duration
	deadline time.Duration
	logger   logger.Logger
}

// WebhookOption applies a configuration option to the Webhook.
type WebhookOption func(*Webhook)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.client = c
		}
	}
}

// WithPolling sets the status poll interval and overall deadline.
func WithPolling(interval, deadline time.Duration) WebhookOption {
	return func(w *Webhook) {
		if interval > 0 {
			w.interval = interval
		}
		if deadline > 0 {
			w.deadline = deadline
		}
	}
}

// WithWebhookLogger sets a custom logger for the stage.
func WithWebhookLogger(l logger.Logger) WebhookOption {
	return func(w *Webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWebhook creates a stage named name that triggers url.
func NewWebhook(name, url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		name:     name,
		url:      url,
		client:   &http.Client{Timeout: defaultTimeout},
		interval: defaultPollInterval,
		deadline: defaultPollDeadline,
		logger:   logger.Get().Named("stage." + name),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name identifies the stage in logs and metrics.
func (w *Webhook) Name() string { return w.name }

// Run triggers the external service and waits for the task to finish.
func (w *Webhook) Run(ctx context.Context, candidate model.Candidate, prior model.StageOutput) (model.StageOutput, error) {
	initial, err := w.trigger(ctx, candidate, prior)
	if err != nil {
		return model.StageOutput{}, err
	}
	if initial.failed() {
		return model.StageOutput{}, fmt.Errorf("%s task failed on trigger", w.name)
	}
	if initial.done() || initial.TaskID == "" {
		return w.output(initial), nil
	}

	var last statusResponse
	probe := func(ctx context.Context) (bool, error) {
		status, err := w.poll(ctx, initial.TaskID)
		if err != nil {
			return false, err
		}
		if status.failed() {
			return false, fmt.Errorf("%s task %s failed", w.name, initial.TaskID)
		}
		last = status
		return status.done(), nil
	}

	ok, err := pipeline.WaitFor(ctx, w.interval, w.deadline, probe)
	if err != nil {
		return model.StageOutput{}, err
	}
	if !ok {
		w.logger.Warn(ctx, "stage task missed its deadline, continuing without output",
			logger.String("task_id", initial.TaskID),
			logger.Duration("deadline", w.deadline),
		)
		return model.StageOutput{Stage: w.name}, nil
	}

	return w.output(last), nil
}

func (w *Webhook) trigger(ctx context.Context, candidate model.Candidate, prior model.StageOutput) (statusResponse, error) {
	payload, err := json.Marshal(triggerRequest{Candidate: candidate, Prior: prior})
	if err != nil {
		return statusResponse{}, fmt.Errorf("encoding %s trigger: %w", w.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return statusResponse{}, fmt.Errorf("building %s trigger: %w", w.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return w.do(req)
}

func (w *Webhook) poll(ctx context.Context, taskID string) (statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url+"/"+taskID, nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("building %s status request: %w", w.name, err)
	}

	return w.do(req)
}

func (w *Webhook) do(req *http.Request) (statusResponse, error) {
	resp, err := w.client.Do(req)
	if err != nil {
		return statusResponse{}, fmt.Errorf("calling %s service: %w", w.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusResponse{}, fmt.Errorf("%w: %s returned %d", ErrBadStatus, w.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return statusResponse{}, fmt.Errorf("reading %s response: %w", w.name, err)
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return statusResponse{}, fmt.Errorf("decoding %s response: %w", w.name, err)
	}
	return status, nil
}

func (w *Webhook) output(status statusResponse) model.StageOutput {
	return model.StageOutput{
		Stage:   w.name,
		URL:     status.URL,
		Details: status.Details,
	}
}
