// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/prospector/internal/adapters/persistence"
	"github.com/okian/prospector/internal/adapters/repository"
	"github.com/okian/prospector/internal/adapters/sources"
	"github.com/okian/prospector/internal/adapters/stages"
	"github.com/okian/prospector/internal/config"
	"github.com/okian/prospector/internal/domain/batch"
	"github.com/okian/prospector/internal/domain/generate"
	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/internal/domain/scoring"
	"github.com/okian/prospector/internal/domain/validate"
	"github.com/okian/prospector/internal/jobs"
	"github.com/okian/prospector/internal/pipeline"
	"github.com/okian/prospector/pkg/logger"
)

// Service implements the API dependencies for the pipeline system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	registry    *jobs.Registry
	coordinator *pipeline.Coordinator
	store       pipeline.Persistence

	// Optional overrides applied before Start wires defaults.
	sources   []pipeline.SignalSource
	generator pipeline.Generator
	validator pipeline.Validator
	builder   pipeline.Stage
	promoter  pipeline.Stage
	seller    pipeline.Stage

	// State
	started bool
	closers []func()

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSources replaces the feed sources built from configuration.
func WithSources(srcs ...pipeline.SignalSource) Option {
	return func(s *Service) { s.sources = srcs }
}

// WithGenerator replaces the built-in template generator.
func WithGenerator(g pipeline.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithValidator replaces the built-in heuristic validator.
func WithValidator(v pipeline.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithPersistence replaces the store built from configuration.
func WithPersistence(p pipeline.Persistence) Option {
	return func(s *Service) { s.store = p }
}

// WithStages replaces the downstream stage collaborators built from
// configuration.
func WithStages(builder, promoter, seller pipeline.Stage) Option {
	return func(s *Service) {
		s.builder = builder
		s.promoter = promoter
		s.seller = seller
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service from configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting pipeline service...")

	if s.store == nil {
		store, err := s.buildStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}
	if s.sources == nil {
		s.sources = s.buildSources()
	}
	if s.generator == nil {
		s.generator = generate.NewTemplater()
	}
	if s.validator == nil {
		s.validator = validate.NewHeuristic()
	}
	if s.builder == nil {
		s.builder, s.promoter, s.seller = s.buildStages()
	}

	s.registry = jobs.NewRegistry(repository.NewMemStore())

	opts := []pipeline.Option{
		pipeline.WithSources(s.sources...),
		pipeline.WithGenerator(s.generator),
		pipeline.WithValidator(s.validator),
		pipeline.WithPersistence(s.store),
	}
	if s.builder != nil {
		opts = append(opts, pipeline.WithBuilder(s.builder))
	}
	if s.promoter != nil {
		opts = append(opts, pipeline.WithPromoter(s.promoter))
	}
	if s.seller != nil {
		opts = append(opts, pipeline.WithSeller(s.seller))
	}
	s.coordinator = pipeline.New(
		s.registry,
		scoring.NewEngine(),
		batch.New(),
		opts...,
	)

	s.started = true
	s.logger.Info(ctx, "pipeline service started",
		logger.Int("sources", len(s.sources)),
		logger.Int("top_signals", s.cfg.TopSignals),
		logger.Int("min_signal_score", s.cfg.MinSignalScore),
	)

	return nil
}

// Stop releases resources owned by the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping pipeline service...")
	for _, closeFn := range s.closers {
		closeFn()
	}
	s.closers = nil
	s.started = false
	s.logger.Info(context.Background(), "pipeline service stopped")
}

func (s *Service) buildStore(ctx context.Context) (pipeline.Persistence, error) {
	if s.cfg.PostgresDSN != "" {
		store, err := persistence.NewPostgresStore(ctx, s.cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("wiring postgres store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		s.logger.Info(ctx, "using postgres store")
		return store, nil
	}

	store, err := persistence.NewFileStore(s.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("wiring file store: %w", err)
	}
	s.logger.Info(ctx, "using file store", logger.String("dir", s.cfg.DataDir))
	return store, nil
}

func (s *Service) buildSources() []pipeline.SignalSource {
	feeds := []struct {
		source model.Source
		url    string
	}{
		{model.SourceTrends, s.cfg.TrendsFeedURL},
		{model.SourceReddit, s.cfg.RedditFeedURL},
		{model.SourceProductHunt, s.cfg.ProductHuntFeedURL},
	}

	var built []pipeline.SignalSource
	for _, f := range feeds {
		if f.url == "" {
			continue
		}
		built = append(built, sources.NewFeed(f.source, f.url))
	}
	return built
}

func (s *Service) buildStages() (builder, promoter, seller pipeline.Stage) {
	polling := stages.WithPolling(s.cfg.StagePollInterval, s.cfg.StagePollDeadline)

	if s.cfg.BuilderURL != "" {
		builder = stages.NewWebhook("build", s.cfg.BuilderURL, polling)
	}
	if s.cfg.PromoterURL != "" {
		promoter = stages.NewWebhook("promote", s.cfg.PromoterURL, polling)
	}
	if s.cfg.SellerURL != "" {
		seller = stages.NewWebhook("sell", s.cfg.SellerURL, polling)
	}
	return builder, promoter, seller
}

func (s *Service) runConfig() pipeline.Config {
	return pipeline.Config{
		MinSignalScore:      s.cfg.MinSignalScore,
		MinCandidateScore:   s.cfg.MinCandidateScore,
		TopSignals:          s.cfg.TopSignals,
		CandidatesPerSignal: s.cfg.CandidatesPerSignal,
		ValidateConcurrency: s.cfg.ValidateConcurrency,
	}
}

// StartPipeline dispatches a full pipeline job and returns its id.
func (s *Service) StartPipeline(ctx context.Context) (string, error) {
	id, _, err := s.coordinator.RunPipeline(ctx, s.runConfig())
	return id, err
}

// StartScan dispatches a standalone scan job and returns its id.
func (s *Service) StartScan(ctx context.Context) (string, error) {
	id, _, err := s.coordinator.RunScan(ctx, s.runConfig())
	return id, err
}

// StartGenerate dispatches a standalone generate job and returns its id.
func (s *Service) StartGenerate(ctx context.Context) (string, error) {
	id, _, err := s.coordinator.RunGenerate(ctx, s.runConfig())
	return id, err
}

// GetJob returns the current snapshot of a job.
func (s *Service) GetJob(ctx context.Context, id string) (jobs.Job, error) {
	return s.registry.Get(ctx, id)
}

// ListJobs returns jobs newest-first, clamped to the configured maximum.
func (s *Service) ListJobs(ctx context.Context, stage jobs.StageType, limit int) []jobs.Job {
	if limit <= 0 || limit > s.cfg.MaxListLimit {
		limit = s.cfg.MaxListLimit
	}
	return s.registry.List(ctx, stage, limit)
}

// LatestCandidates returns the ranked candidates of the most recent run.
func (s *Service) LatestCandidates(ctx context.Context) ([]model.Candidate, error) {
	return s.store.LoadLatest(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"sources": len(s.sources),
	}
	if s.started {
		stats["jobs_running"] = s.registry.Running()
		stats["jobs_tracked"] = len(s.registry.List(context.Background(), "", s.cfg.MaxListLimit))
	}
	return stats
}
