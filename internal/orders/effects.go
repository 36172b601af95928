package orders

import (
	"context"

	"go.uber.org/multierr"

	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/metrics"
)

// Effect is one post-commit rollup. Effects run after the completion
// transaction and must be individually idempotent or tolerable to lose.
type Effect struct {
	Name string
	Run  func(ctx context.Context) error
}

// runEffects executes every effect regardless of earlier failures. The
// combined error is returned for logging only, never surfaced to callers.
func runEffects(ctx context.Context, log *logger.Logger, m *metrics.RewardsMetrics, effects []Effect) error {
	var combined error
	for _, effect := range effects {
		if effect.Run == nil {
			continue
		}
		if err := effect.Run(ctx); err != nil {
			combined = multierr.Append(combined, err)
			m.IncEffectFailure(effect.Name)
			if log != nil {
				log.Error(log.WithField(ctx, "effect", effect.Name), "order completion effect failed", err)
			}
		}
	}
	return combined
}
