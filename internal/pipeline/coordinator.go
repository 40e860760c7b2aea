package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prospector/internal/domain/batch"
	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/internal/domain/scoring"
	"github.com/okian/prospector/internal/jobs"
	"github.com/okian/prospector/pkg/logger"
	"github.com/okian/prospector/pkg/metrics"
)

// Default run configuration.
const (
	DefaultMinSignalScore      = 60
	DefaultMinCandidateScore   = 70
	DefaultTopSignals          = 3
	DefaultCandidatesPerSignal = 3
	DefaultValidateConcurrency = 3
)

// Config tunes one pipeline run.
type Config struct {
	MinSignalScore      int `json:"min_signal_score"`
	MinCandidateScore   int `json:"min_candidate_score"`
	TopSignals          int `json:"top_signals"`
	CandidatesPerSignal int `json:"candidates_per_signal"`
	ValidateConcurrency int `json:"validate_concurrency"`

	// SkipValidation drops the validate stage even when a validator is
	// configured.
	SkipValidation bool `json:"skip_validation"`
}

// withDefaults fills unset fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.MinSignalScore <= 0 {
		c.MinSignalScore = DefaultMinSignalScore
	}
	if c.MinCandidateScore <= 0 {
		c.MinCandidateScore = DefaultMinCandidateScore
	}
	if c.TopSignals <= 0 {
		c.TopSignals = DefaultTopSignals
	}
	if c.CandidatesPerSignal <= 0 {
		c.CandidatesPerSignal = DefaultCandidatesPerSignal
	}
	if c.ValidateConcurrency <= 0 {
		c.ValidateConcurrency = DefaultValidateConcurrency
	}
	return c
}

// Coordinator sequences pipeline stages into tracked jobs, using the scoring
// engine and batch processor internally.
type Coordinator struct {
	registry  *jobs.Registry
	engine    *scoring.Engine
	processor *batch.Processor

	sources   []SignalSource
	generator Generator
	validator Validator
	store     Persistence
	builder   Stage
	promoter  Stage
	seller    Stage

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithSources sets the signal sources scanned by the scan stage.
func WithSources(sources ...SignalSource) Option {
	return func(c *Coordinator) { c.sources = sources }
}

// WithGenerator sets the candidate generator collaborator.
func WithGenerator(g Generator) Option {
	return func(c *Coordinator) { c.generator = g }
}

// WithValidator sets the optional validation collaborator.
func WithValidator(v Validator) Option {
	return func(c *Coordinator) { c.validator = v }
}

// WithPersistence sets the store ranked output is written to.
func WithPersistence(p Persistence) Option {
	return func(c *Coordinator) { c.store = p }
}

// WithBuilder sets the optional build stage collaborator.
func WithBuilder(s Stage) Option {
	return func(c *Coordinator) { c.builder = s }
}

// WithPromoter sets the optional promote stage collaborator.
func WithPromoter(s Stage) Option {
	return func(c *Coordinator) { c.promoter = s }
}

// WithSeller sets the optional sell stage collaborator.
func WithSeller(s Stage) Option {
	return func(c *Coordinator) { c.seller = s }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger for the coordinator.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a coordinator. The registry, engine and processor are required;
// collaborators are supplied through options.
func New(registry *jobs.Registry, engine *scoring.Engine, processor *batch.Processor, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:  registry,
		engine:    engine,
		processor: processor,
		now:       time.Now,
		logger:    logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunPipeline dispatches the full pipeline as one job and returns its id
// immediately. Callers poll the registry for progress.
func (c *Coordinator) RunPipeline(ctx context.Context, cfg Config) (string, *jobs.Handle, error) {
	cfg = cfg.withDefaults()

	id, err := c.registry.Create(ctx, jobs.StagePipeline)
	if err != nil {
		return "", nil, err
	}
	h, err := c.registry.Dispatch(ctx, id, func(workCtx context.Context) (any, error) {
		return c.runPipeline(workCtx, id, cfg)
	})
	if err != nil {
		return "", nil, err
	}
	return id, h, nil
}

// RunScan dispatches a standalone scan job.
func (c *Coordinator) RunScan(ctx context.Context, cfg Config) (string, *jobs.Handle, error) {
	cfg = cfg.withDefaults()

	id, err := c.registry.Create(ctx, jobs.StageScan)
	if err != nil {
		return "", nil, err
	}
	h, err := c.registry.Dispatch(ctx, id, func(workCtx context.Context) (any, error) {
		signals, err := c.scan(workCtx, id, cfg)
		return &ScanResult{RunID: id, Count: len(signals), Signals: signals}, err
	})
	if err != nil {
		return "", nil, err
	}
	return id, h, nil
}

// RunGenerate dispatches a standalone generate job over the latest persisted
// signals.
func (c *Coordinator) RunGenerate(ctx context.Context, cfg Config) (string, *jobs.Handle, error) {
	cfg = cfg.withDefaults()

	id, err := c.registry.Create(ctx, jobs.StageGenerate)
	if err != nil {
		return "", nil, err
	}
	h, err := c.registry.Dispatch(ctx, id, func(workCtx context.Context) (any, error) {
		return c.runGenerate(workCtx, id, cfg)
	})
	if err != nil {
		return "", nil, err
	}
	return id, h, nil
}

// runPipeline executes the stage chain. It always returns the accumulated
// result so a failed job keeps everything computed before the failure.
func (c *Coordinator) runPipeline(ctx context.Context, runID string, cfg Config) (*Result, error) {
	result := &Result{RunID: runID}

	signals, err := c.scan(ctx, runID, cfg)
	result.Signals = signals
	if err != nil {
		return result, err
	}

	candidates, err := c.generate(ctx, signals, cfg)
	if err != nil {
		result.Candidates = candidates
		return result, err
	}

	if c.validator != nil && !cfg.SkipValidation {
		candidates = c.validate(ctx, candidates, cfg)
	}

	ranked, err := c.prioritize(ctx, candidates, cfg)
	result.Candidates = ranked
	if err != nil {
		return result, err
	}

	if err := c.persist(ctx, runID, ranked); err != nil {
		return result, err
	}

	if err := c.launch(ctx, ranked[0], result); err != nil {
		return result, err
	}

	return result, nil
}

// runGenerate is the standalone generate stage: load the latest retained
// signals, generate and prioritize candidates, persist the ranking.
func (c *Coordinator) runGenerate(ctx context.Context, runID string, cfg Config) (*GenerateResult, error) {
	if c.store == nil {
		return nil, fmt.Errorf("%w: persistence", ErrNotConfigured)
	}

	signals, err := c.store.LoadLatestSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading latest signals: %w", err)
	}
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: no signals found, run a scan first", ErrStageEmpty)
	}
	if len(signals) > cfg.TopSignals {
		signals = signals[:cfg.TopSignals]
	}

	candidates, err := c.generate(ctx, signals, cfg)
	if err != nil {
		return &GenerateResult{RunID: runID}, err
	}

	if c.validator != nil && !cfg.SkipValidation {
		candidates = c.validate(ctx, candidates, cfg)
	}

	ranked, err := c.prioritize(ctx, candidates, cfg)
	if err != nil {
		return &GenerateResult{RunID: runID}, err
	}

	if err := c.persist(ctx, runID, ranked); err != nil {
		return &GenerateResult{RunID: runID, Count: len(ranked), Candidates: ranked}, err
	}

	return &GenerateResult{RunID: runID, Count: len(ranked), Candidates: ranked}, nil
}

// scan fans out over all sources, scores the merged signals and keeps the
// best. A failing source is logged and skipped; it never aborts the scan.
func (c *Coordinator) scan(ctx context.Context, runID string, cfg Config) ([]model.Signal, error) {
	defer c.observeStage("scan", c.now())

	if len(c.sources) == 0 {
		metrics.RecordStageFailure("scan")
		return nil, fmt.Errorf("%w: signal sources", ErrNotConfigured)
	}

	var mu sync.Mutex
	var raw []model.Signal

	var wg sync.WaitGroup
	for _, src := range c.sources {
		wg.Add(1)
		go func(src SignalSource) {
			defer wg.Done()
			fetched, err := src.Fetch(ctx)
			if err != nil {
				c.logger.Warn(ctx, "signal source failed, skipping",
					logger.String("source", src.Name()),
					logger.Error(err),
				)
				return
			}
			metrics.RecordSignalsFetched(src.Name(), len(fetched))
			mu.Lock()
			raw = append(raw, fetched...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	c.logger.Info(ctx, "collected raw signals", logger.Int("count", len(raw)))

	now := c.now()
	retained := make([]model.Signal, 0, len(raw))
	for _, sig := range raw {
		if sig.ID == "" {
			sig.ID = uuid.NewString()
		}
		total, breakdown := c.engine.Score(ctx, scoring.SignalMetrics(sig, now), scoring.SignalProfile(sig.Source))
		sig.Score = total
		sig.Breakdown = &breakdown
		if sig.Score >= cfg.MinSignalScore {
			retained = append(retained, sig)
		}
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(retained, func(i, k int) bool {
		return retained[i].Score > retained[k].Score
	})
	if len(retained) > cfg.TopSignals {
		retained = retained[:cfg.TopSignals]
	}

	metrics.UpdateSignalsRetained(len(retained))

	if len(retained) == 0 {
		metrics.RecordStageFailure("scan")
		return nil, fmt.Errorf("%w: scan retained no signals with score >= %d", ErrStageEmpty, cfg.MinSignalScore)
	}

	if c.store != nil {
		if err := c.store.SaveSignals(ctx, runID, retained); err != nil {
			metrics.RecordStageFailure("scan")
			return retained, fmt.Errorf("persisting scanned signals: %w", err)
		}
	}

	c.logger.Info(ctx, "scan retained signals",
		logger.Int("count", len(retained)),
		logger.Int("min_score", cfg.MinSignalScore),
	)

	return retained, nil
}

// generate asks the generator for candidates per retained signal. A failing
// signal is logged and skipped; zero candidates overall fails the stage.
func (c *Coordinator) generate(ctx context.Context, signals []model.Signal, cfg Config) ([]model.Candidate, error) {
	defer c.observeStage("generate", c.now())

	if c.generator == nil {
		metrics.RecordStageFailure("generate")
		return nil, fmt.Errorf("%w: generator", ErrNotConfigured)
	}

	var candidates []model.Candidate
	for _, sig := range signals {
		generated, err := c.generator.Generate(ctx, sig, cfg.CandidatesPerSignal)
		if err != nil {
			c.logger.Warn(ctx, "candidate generation failed for signal, skipping",
				logger.String("signal_id", sig.ID),
				logger.Error(err),
			)
			continue
		}
		for _, cand := range generated {
			if cand.ID == "" {
				cand.ID = uuid.NewString()
			}
			cand.SourceSignalID = sig.ID
			cand.SignalScore = sig.Score
			if cand.GeneratedAt.IsZero() {
				cand.GeneratedAt = c.now()
			}
			candidates = append(candidates, cand)
		}
	}

	if len(candidates) == 0 {
		metrics.RecordStageFailure("generate")
		return nil, fmt.Errorf("%w: generate produced no candidates", ErrStageEmpty)
	}

	c.logger.Info(ctx, "generated candidates", logger.Int("count", len(candidates)))

	return candidates, nil
}

// validate enriches candidates through the batch processor. Per-item failures
// degrade gracefully: the candidate stays unvalidated.
func (c *Coordinator) validate(ctx context.Context, candidates []model.Candidate, cfg Config) []model.Candidate {
	defer c.observeStage("validate", c.now())

	op := func(ctx context.Context, cand model.Candidate) (model.Candidate, error) {
		v, err := c.validator.Validate(ctx, cand)
		if err != nil {
			return cand, fmt.Errorf("validating candidate %s: %w", cand.ID, err)
		}
		cand.Validation = &v
		return cand, nil
	}

	results := batch.ProcessAll(ctx, c.processor, candidates, op, cfg.ValidateConcurrency)

	out := make([]model.Candidate, len(results))
	degraded := 0
	for i, r := range results {
		out[i] = r.Value
		if r.Err != nil {
			degraded++
		}
	}
	if degraded > 0 {
		c.logger.Warn(ctx, "some candidates kept unvalidated", logger.Int("count", degraded))
	}

	return out
}

// prioritize scores candidates and keeps the ranked set above threshold.
func (c *Coordinator) prioritize(ctx context.Context, candidates []model.Candidate, cfg Config) ([]model.Candidate, error) {
	defer c.observeStage("prioritize", c.now())

	profile := scoring.CandidateProfile()

	ranked := make([]model.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		total, breakdown := c.engine.Score(ctx, scoring.CandidateMetrics(cand), profile)
		cand.PriorityScore = total
		cand.Breakdown = &breakdown
		if cand.PriorityScore >= cfg.MinCandidateScore {
			ranked = append(ranked, cand)
		}
	}

	sort.SliceStable(ranked, func(i, k int) bool {
		return ranked[i].PriorityScore > ranked[k].PriorityScore
	})

	if len(ranked) == 0 {
		metrics.RecordStageFailure("prioritize")
		return nil, fmt.Errorf("%w: no candidates reached priority score %d", ErrStageEmpty, cfg.MinCandidateScore)
	}

	c.logger.Info(ctx, "prioritized candidates",
		logger.Int("count", len(ranked)),
		logger.Int("min_score", cfg.MinCandidateScore),
	)

	return ranked, nil
}

func (c *Coordinator) persist(ctx context.Context, runID string, ranked []model.Candidate) error {
	defer c.observeStage("persist", c.now())

	if c.store == nil {
		return nil
	}
	if err := c.store.Save(ctx, runID, ranked); err != nil {
		metrics.RecordStageFailure("persist")
		return fmt.Errorf("persisting ranked candidates: %w", err)
	}

	metrics.RecordRunPersisted()
	metrics.UpdateCandidatesPersisted(len(ranked))

	return nil
}

// launch chains the optional downstream stages over the top candidate. Each
// stage consumes the prior stage's output; a missing deployment URL ends the
// chain as a valid terminal outcome, not an error.
func (c *Coordinator) launch(ctx context.Context, top model.Candidate, result *Result) error {
	if c.builder == nil {
		return nil
	}

	defer c.observeStage("launch", c.now())

	build, err := c.builder.Run(ctx, top, model.StageOutput{})
	if err != nil {
		metrics.RecordStageFailure(c.builder.Name())
		return fmt.Errorf("build stage: %w", err)
	}
	result.Build = &build

	if build.URL == "" {
		c.logger.Warn(ctx, "no deployment URL, skipping promotion and sales",
			logger.String("candidate_id", top.ID),
		)
		return nil
	}

	if c.promoter != nil {
		promo, err := c.promoter.Run(ctx, top, build)
		if err != nil {
			metrics.RecordStageFailure(c.promoter.Name())
			return fmt.Errorf("promote stage: %w", err)
		}
		result.Promotion = &promo
	}

	if c.seller != nil {
		sales, err := c.seller.Run(ctx, top, build)
		if err != nil {
			metrics.RecordStageFailure(c.seller.Name())
			return fmt.Errorf("sell stage: %w", err)
		}
		result.Sales = &sales
	}

	return nil
}

func (c *Coordinator) observeStage(stage string, start time.Time) {
	metrics.RecordStageDuration(stage, float64(c.now().Sub(start).Milliseconds()))
}
