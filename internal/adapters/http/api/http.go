// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/prospector/internal/jobs"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Start operations dispatch asynchronous jobs and return the job id.
	StartPipeline(ctx context.Context) (string, error)
	StartScan(ctx context.Context) (string, error)
	StartGenerate(ctx context.Context) (string, error)

	// Read operations expose job bookkeeping.
	GetJob(ctx context.Context, id string) (jobs.Job, error)
	ListJobs(ctx context.Context, stage jobs.StageType, limit int) []jobs.Job
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	triggerHandler *TriggerHandler
	jobsHandler    *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		triggerHandler: NewTriggerHandler(deps),
		jobsHandler:    NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/pipeline", MetricsMiddleware(s.triggerHandler.HandlePipeline, "pipeline"))
	mux.HandleFunc("/scan", MetricsMiddleware(s.triggerHandler.HandleScan, "scan"))
	mux.HandleFunc("/generate", MetricsMiddleware(s.triggerHandler.HandleGenerate, "generate"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleListJobs, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "job"))
}

// jobAccepted is the response to a successful trigger.
type jobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
