package flaredns

import (
	"context"
	"time"

	"flaredns/log"
)

// Loop drives run at a fixed interval. Interval 0 runs a single cycle and
// returns its outcome. The interval never accelerates or backs off on
// failure, keeping API call volume against the provider predictable; a
// failed cycle's retry is simply the next cycle.
func Loop(ctx context.Context, run func(context.Context) error, interval time.Duration) error {
	if interval <= 0 {
		return run(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// Per-cycle failures are already logged at the family boundary and
		// must not stop the loop.
		_ = run(ctx)

		select {
		case <-ctx.Done():
			log.S(ctx).Infow("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}
