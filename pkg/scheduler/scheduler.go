package scheduler

import (
	"context"
	"log/slog"

	"github.com/swiftwatch/swiftwatch/metrics"
)

// Runner is a unit of periodic work, typically one configured check.
type Runner interface {
	Run(ctx context.Context) error
	Name() string
}

// RunOnce executes each runner a single time.  A failing runner is logged
// and does not stop the remaining runners.
func RunOnce(ctx context.Context, log *slog.Logger, runners ...Runner) {
	for _, r := range runners {
		metrics.ChecksRunTotal.WithLabelValues(r.Name()).Inc()
		if err := r.Run(ctx); err != nil {
			metrics.CheckErrorsTotal.WithLabelValues(r.Name()).Inc()
			log.Error("check failed", slog.String("check", r.Name()), slog.String("error", err.Error()))
		}
	}
}
