// Package sweeper drives the periodic expire-and-promote pass over
// every boost queue.
package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	"github.com/listora/listora/internal/clock"
	obsmetrics "github.com/listora/listora/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("sweeper: invalid configuration")

type Params struct {
	fx.In

	Log      *zap.Logger
	BoostSvc boostdomain.Service
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   Config `optional:"true"`
}

type Sweeper struct {
	log      *zap.Logger
	cfg      Config
	genID    *snowflake.Node
	clock    clock.Clock
	boostSvc boostdomain.Service

	running atomic.Bool
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.BoostSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:      p.Log.Named("sweeper").With(zap.String("component", "sweeper")),
		cfg:      p.Config.withDefaults(),
		genID:    p.GenID,
		clock:    p.Clock,
		boostSvc: p.BoostSvc,
	}, nil
}

// RunOnce drains every elapsed queue, batch by batch, until a pass
// finds nothing left to expire. A tick that overlaps a still-running
// pass is skipped rather than stacked.
func (s *Sweeper) RunOnce(parent context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("sweep already running, skipping tick")
		return nil
	}
	defer s.running.Store(false)

	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	run := s.newRun()
	s.logRunStart(run)

	sweepMetrics := obsmetrics.Sweep()
	sweepMetrics.IncSweepRun()

	var jobErr error
	for {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}

		result, err := s.boostSvc.SweepExpired(ctx, s.cfg.BatchSize)
		run.expired += result.Expired
		run.promoted += result.Promoted
		run.queuesSwept += result.QueuesSwept
		if err != nil {
			run.errorCount++
			sweepMetrics.IncSweepError(err)
			jobErr = errors.Join(jobErr, err)
		}
		if result.QueuesSwept == 0 {
			break
		}
	}

	sweepMetrics.ObserveSweepDuration(s.clock.Now().Sub(start))
	s.logRunFinish(run, start)

	if jobErr != nil && (errors.Is(jobErr, context.DeadlineExceeded) || errors.Is(jobErr, context.Canceled)) {
		s.log.Warn("sweep timed out",
			zap.String("run_id", run.runID),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(jobErr),
		)
		return nil
	}
	return jobErr
}

// RunForever sweeps on a fixed cadence until the context is cancelled.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
