package scoring

import (
	"context"
	"math"
	"time"

	"github.com/okian/prospector/internal/domain/model"
	"github.com/okian/prospector/pkg/logger"
	"github.com/okian/prospector/pkg/metrics"
)

// Engine scores entities against profiles and explains the result.
type Engine struct {
	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a scoring engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the weighted total for the given raw metrics and returns the
// per-factor breakdown. The total is round-half-up of the weighted sum and
// always lies in [0, 100].
func (e *Engine) Score(ctx context.Context, raw map[string]any, p *Profile) (int, model.Breakdown) {
	start := time.Now()

	components := make(map[string]model.Component, len(p.factors))
	var sum float64
	for _, f := range p.factors {
		sub := f.Normalize(raw)
		weighted := float64(sub) * float64(f.Weight) / 100
		components[f.Name] = model.Component{
			RawScore: sub,
			Weight:   f.Weight,
			Weighted: weighted,
		}
		sum += weighted
	}

	total := roundHalfUp(sum)

	metrics.RecordEntityScored()
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	e.logger.Debug(ctx, "scored entity",
		logger.String("profile", p.name),
		logger.Int("total", total),
	)

	return total, model.Breakdown{Components: components, Total: total}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
