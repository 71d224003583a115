// Package collector runs the configured checks on a shared interval and
// flushes their gauges to the sink after every round.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/swiftwatch/swiftwatch/handoffs"
	"github.com/swiftwatch/swiftwatch/metrics"
	"github.com/swiftwatch/swiftwatch/pkg/scheduler"
	"github.com/swiftwatch/swiftwatch/recon"
)

type ServiceOpts struct {
	// Interval between check rounds.
	Interval time.Duration

	Handoffs []handoffs.CheckerOpts
	Recon    []recon.CheckerOpts

	Sink metrics.Sink
	Log  *slog.Logger
}

type Service struct {
	opts    ServiceOpts
	runners []scheduler.Runner
	sink    metrics.Sink
	log     *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewService(opts *ServiceOpts) *Service {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	var runners []scheduler.Runner
	for _, h := range opts.Handoffs {
		runners = append(runners, handoffs.NewChecker(h, opts.Sink, log))
	}
	for _, r := range opts.Recon {
		runners = append(runners, recon.NewChecker(r, opts.Sink, log))
	}

	return &Service{
		opts:    *opts,
		runners: runners,
		sink:    opts.Sink,
		log:     log.With(slog.String("component", "collector")),
	}
}

func (s *Service) Open(ctx context.Context) error {
	s.log.Info("starting checks",
		slog.Int("count", len(s.runners)),
		slog.Duration("interval", s.opts.Interval))

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

func (s *Service) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	// First round runs right away so a freshly started agent reports
	// without waiting out a full interval.
	s.runRound(ctx)

	t := time.NewTicker(s.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runRound(ctx)
		}
	}
}

func (s *Service) runRound(ctx context.Context) {
	scheduler.RunOnce(ctx, s.log, s.runners...)

	if f, ok := s.sink.(metrics.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			s.log.Error("flush failed", slog.String("error", err.Error()))
		}
	}
}
