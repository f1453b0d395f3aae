// Package sweep runs the daily job that marks abandoned check-ins incomplete.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is satisfied by attendance.Service.
type Sweeper interface {
	SweepIncomplete(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	logger  *zap.Logger
}

// New registers the sweep under a standard 5-field cron spec evaluated in UTC.
func New(schedule string, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sweeper: sweeper,
		timeout: 5 * time.Minute,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
	}
}

// RunOnce sweeps immediately. The attendance service logs the count.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	return s.sweeper.SweepIncomplete(ctx)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if next := s.Next(); !next.IsZero() {
		s.logger.Info("sweep scheduled", zap.Time("next_run", next))
	}
}

// Next is the zero time until Start has been called.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop prevents new runs and waits for a running sweep, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
