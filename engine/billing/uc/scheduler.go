package uc

import (
	"context"
	"fmt"
	"time"

	"github.com/lendflow/lendflow/pkg/logger"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 5 * time.Minute

// Sweeper runs SweepExpired on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	factory *Factory
}

// NewSweeper parses schedule (five fields or an @descriptor). Overlapping runs
// are skipped.
func NewSweeper(ctx context.Context, factory *Factory, schedule string) (*Sweeper, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)))
	s := &Sweeper{cron: c, factory: factory}
	_, err := c.AddFunc(schedule, func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sweepTimeout)
		defer cancel()
		s.RunOnce(runCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling subscription sweep %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) RunOnce(ctx context.Context) {
	n, err := s.factory.SweepExpired().Execute(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Subscription sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.FromContext(ctx).Info("Subscription sweep finished", "changed", n)
	}
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
