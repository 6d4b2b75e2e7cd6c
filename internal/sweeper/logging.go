package sweeper

import (
	"time"

	"go.uber.org/zap"
)

type sweepRun struct {
	runID       string
	queuesSwept int
	expired     int
	promoted    int
	errorCount  int
}

func (s *Sweeper) newRun() *sweepRun {
	return &sweepRun{runID: s.genID.Generate().String()}
}

func (s *Sweeper) logRunStart(run *sweepRun) {
	s.log.Info("sweep.run.start",
		zap.String("run_id", run.runID),
		zap.Int("batch_size", s.cfg.BatchSize),
	)
}

func (s *Sweeper) logRunFinish(run *sweepRun, start time.Time) {
	fields := []zap.Field{
		zap.String("run_id", run.runID),
		zap.Int64("duration_ms", s.clock.Now().Sub(start).Milliseconds()),
		zap.Int("queues_swept", run.queuesSwept),
		zap.Int("entries_expired", run.expired),
		zap.Int("entries_promoted", run.promoted),
		zap.Int("error_count", run.errorCount),
	}
	if run.errorCount > 0 {
		s.log.Warn("sweep.run.finish", fields...)
		return
	}
	s.log.Info("sweep.run.finish", fields...)
}
