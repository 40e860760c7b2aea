package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Probe reports whether an awaited external condition has been reached.
type Probe func(ctx context.Context) (done bool, err error)

// WaitFor polls probe at a fixed interval until it reports done, fails, or
// the deadline elapses. An exhausted deadline is a normal outcome, not an
// error: the caller gets ok=false and decides what a missed deadline means.
func WaitFor(ctx context.Context, interval, deadline time.Duration, probe Probe) (bool, error) {
	done, err := probe(ctx)
	if err != nil {
		return false, err
	}
	if done {
		return true, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timeout := time.NewTimer(deadline)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("waiting interrupted: %w", ctx.Err())
		case <-timeout.C:
			return false, nil
		case <-ticker.C:
			done, err := probe(ctx)
			if err != nil {
				return false, err
			}
			if done {
				return true, nil
			}
		}
	}
}
