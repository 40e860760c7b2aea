// Package batch runs an independent operation over a list of items with
// bounded concurrency, isolating per-item failures.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/prospector/pkg/logger"
	"github.com/okian/prospector/pkg/metrics"
)

// DefaultConcurrency bounds a wave when the caller passes a non-positive
// concurrency.
const DefaultConcurrency = 3

// Op transforms a single item, typically by calling an external collaborator.
type Op[T any] func(ctx context.Context, item T) (T, error)

// Result carries the outcome for one input item. On failure Value holds the
// original, unmodified item and Err records why the operation was skipped,
// so callers can tell "degraded, kept original" from a clean result.
type Result[T any] struct {
	Value T
	Err   error
}

// Processor runs operations in sequential waves of bounded size.
type Processor struct {
	logger logger.Logger
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithLogger sets a custom logger for the processor.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a batch processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		logger: logger.Get().Named("batch"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessAll applies op to every item and returns one result per input, in
// input order. Items are grouped into sequential waves of size concurrency;
// within a wave all operations run concurrently and the call waits for the
// whole wave before dispatching the next. The wave shape keeps bursts against
// rate-limited collaborators small and steady.
//
// A failing or panicking operation never cancels its siblings: the item's
// result keeps the original value with the error recorded. Each item is
// attempted exactly once.
func ProcessAll[T any](ctx context.Context, p *Processor, items []T, op Op[T], concurrency int) []Result[T] {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result[T], len(items))

	for start := 0; start < len(items); start += concurrency {
		end := start + concurrency
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = runOne(ctx, p, items[idx], op)
			}(i)
		}
		wg.Wait()
	}

	return results
}

func runOne[T any](ctx context.Context, p *Processor, item T, op Op[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Value: item, Err: fmt.Errorf("operation panicked: %v", r)}
			metrics.RecordBatchItemDegraded()
			p.logger.Error(ctx, "batch operation panicked", logger.Any("panic", r))
		}
	}()

	metrics.RecordBatchItemProcessed()

	out, err := op(ctx, item)
	if err != nil {
		metrics.RecordBatchItemDegraded()
		p.logger.Warn(ctx, "batch operation failed, keeping original item", logger.Error(err))
		return Result[T]{Value: item, Err: err}
	}
	return Result[T]{Value: out}
}
