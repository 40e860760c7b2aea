// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/prospector/internal/jobs"
)

// JobsDependencies defines the interface for job read operations.
type JobsDependencies interface {
	GetJob(ctx context.Context, id string) (jobs.Job, error)
	ListJobs(ctx context.Context, stage jobs.StageType, limit int) []jobs.Job
}

// JobsHandler handles job lookup and listing requests.
type JobsHandler struct {
	deps JobsDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobsDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleGetJob handles GET /jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing job id", ErrBadRequest))
		return
	}
	job, err := h.deps.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// jobList is the response shape of GET /jobs.
type jobList struct {
	Jobs  []jobs.Job `json:"jobs"`
	Count int        `json:"count"`
}

// HandleListJobs handles GET /jobs?stage=&limit= requests.
func (h *JobsHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodAllowed)
		return
	}

	stage := jobs.StageType(r.URL.Query().Get("stage"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw))
			return
		}
		limit = n
	}

	list := h.deps.ListJobs(r.Context(), stage, limit)
	if list == nil {
		list = []jobs.Job{}
	}
	writeJSON(w, http.StatusOK, jobList{Jobs: list, Count: len(list)})
}
