package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prospector/pkg/logger"
	"github.com/okian/prospector/pkg/metrics"
)

// DefaultListLimit caps List results when the caller passes no limit.
const DefaultListLimit = 50

// Work is the unit a job tracks. It may return a partial result together
// with an error; the partial payload is kept on the failed job for
// diagnostics.
type Work func(ctx context.Context) (any, error)

// Handle joins a dispatched job. It leaves room to add cancellation later
// without reshaping the Job abstraction.
type Handle struct {
	jobID string
	done  chan struct{}
	err   atomic.Pointer[error]
}

// JobID returns the id of the dispatched job.
func (h *Handle) JobID() string { return h.jobID }

// Done is closed when the dispatched work has finished, in either terminal
// state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the work finishes or ctx is canceled, returning the
// work's error if it failed.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for job %s: %w", h.jobID, ctx.Err())
	case <-h.done:
		if errp := h.err.Load(); errp != nil {
			return *errp
		}
		return nil
	}
}

// Registry allocates, dispatches and queries jobs against an injected
// repository.
type Registry struct {
	repo    Repository
	logger  logger.Logger
	running atomic.Int64
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets a custom logger for the registry.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry backed by the given repository.
func NewRegistry(repo Repository, opts ...Option) *Registry {
	r := &Registry{
		repo:   repo,
		logger: logger.Get().Named("jobs"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create allocates a new pending job and returns its id. Ids carry the stage
// name and a second-granularity timestamp for operator readability, plus a
// random suffix so two dispatches within the same second never collide.
func (r *Registry) Create(ctx context.Context, stage StageType) (string, error) {
	id := newJobID(stage)

	job := Job{
		ID:        id,
		Stage:     stage,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.Insert(job); err != nil {
		return "", fmt.Errorf("creating job for stage %s: %w", stage, err)
	}

	metrics.RecordJobCreated(string(stage))
	r.logger.Info(ctx, "job created",
		logger.String("job_id", id),
		logger.String("stage", string(stage)),
	)

	return id, nil
}

// Dispatch transitions the job to running and executes work as a detached
// goroutine; the caller is not blocked waiting for completion. On success the
// job becomes completed with its result set; on error (or panic) it becomes
// failed with the error string and any partial result the work produced.
func (r *Registry) Dispatch(ctx context.Context, id string, work Work) (*Handle, error) {
	job, err := r.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("dispatching job %s: %w", id, err)
	}
	if job.Status != StatusPending {
		return nil, fmt.Errorf("%w: job %s is %s, want pending", ErrInvalidTransition, id, job.Status)
	}

	job.Status = StatusRunning
	if err := r.repo.Update(job); err != nil {
		return nil, fmt.Errorf("marking job %s running: %w", id, err)
	}
	metrics.UpdateJobsRunning(int(r.running.Add(1)))

	h := &Handle{jobID: id, done: make(chan struct{})}

	// The work outlives the dispatching request; detach it from the
	// caller's cancellation.
	workCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(h.done)

		var result any
		var workErr error
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					workErr = fmt.Errorf("job panicked: %v", rec)
				}
			}()
			result, workErr = work(workCtx)
		}()

		r.finish(workCtx, id, result, workErr)
		if workErr != nil {
			h.err.Store(&workErr)
		}
	}()

	return h, nil
}

func (r *Registry) finish(ctx context.Context, id string, result any, workErr error) {
	metrics.UpdateJobsRunning(int(r.running.Add(-1)))

	job, err := r.repo.Get(id)
	if err != nil {
		r.logger.Error(ctx, "finishing unknown job", logger.String("job_id", id), logger.Error(err))
		return
	}

	now := time.Now().UTC()
	job.CompletedAt = &now
	job.Result = result
	if workErr != nil {
		job.Status = StatusFailed
		job.Error = workErr.Error()
		metrics.RecordJobFailed(string(job.Stage))
		r.logger.Warn(ctx, "job failed",
			logger.String("job_id", id),
			logger.Error(workErr),
		)
	} else {
		job.Status = StatusCompleted
		metrics.RecordJobCompleted(string(job.Stage))
		r.logger.Info(ctx, "job completed", logger.String("job_id", id))
	}

	if err := r.repo.Update(job); err != nil {
		r.logger.Error(ctx, "recording job outcome", logger.String("job_id", id), logger.Error(err))
	}
}

// Running reports how many dispatched jobs have not finished yet.
func (r *Registry) Running() int64 {
	return r.running.Load()
}

// Get returns the current snapshot of a job.
func (r *Registry) Get(_ context.Context, id string) (Job, error) {
	job, err := r.repo.Get(id)
	if err != nil {
		return Job{}, fmt.Errorf("job %s: %w", id, err)
	}
	return job, nil
}

// List returns jobs newest-first, optionally filtered by stage type.
// A non-positive limit applies DefaultListLimit.
func (r *Registry) List(_ context.Context, stage StageType, limit int) []Job {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	all := r.repo.List()
	filtered := all[:0]
	for _, j := range all {
		if stage == "" || j.Stage == stage {
			filtered = append(filtered, j)
		}
	}

	sort.SliceStable(filtered, func(i, k int) bool {
		return filtered[i].CreatedAt.After(filtered[k].CreatedAt)
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

func newJobID(stage StageType) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%s-%s", stage, time.Now().UTC().Format("20060102-150405"), suffix)
}
