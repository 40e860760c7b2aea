// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// TriggerDependencies defines the interface for dispatching pipeline jobs.
type TriggerDependencies interface {
	StartPipeline(ctx context.Context) (string, error)
	StartScan(ctx context.Context) (string, error)
	StartGenerate(ctx context.Context) (string, error)
}

// TriggerHandler handles job trigger requests.
type TriggerHandler struct {
	deps TriggerDependencies
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(deps TriggerDependencies) *TriggerHandler {
	return &TriggerHandler{deps: deps}
}

// HandlePipeline handles POST /pipeline requests.
func (h *TriggerHandler) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.deps.StartPipeline)
}

// HandleScan handles POST /scan requests.
func (h *TriggerHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.deps.StartScan)
}

// HandleGenerate handles POST /generate requests.
func (h *TriggerHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.deps.StartGenerate)
}

// trigger dispatches the job and acknowledges immediately. Callers poll
// GET /jobs/{id} for the outcome.
func (h *TriggerHandler) trigger(w http.ResponseWriter, r *http.Request, start func(context.Context) (string, error)) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodAllowed)
		return
	}
	id, err := start(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobAccepted{JobID: id, Status: "pending"})
}
