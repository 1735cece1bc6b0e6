// Package scheduler re-runs the traversal on a fixed interval or cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run
type Job func(ctx context.Context) error

// Scheduler runs a job now and then every interval until its context ends.
// When a cron schedule is set it takes precedence over the interval.
type Scheduler struct {
	job      Job
	every    time.Duration
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. A zero interval and empty schedule run the
// job once.
func NewScheduler(job Job, every time.Duration, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{job: job, every: every, schedule: schedule, logger: logger}
}

// Run blocks until ctx is done. In one-shot mode it returns the job's
// error; otherwise job errors are logged and the next run still happens.
func (s *Scheduler) Run(ctx context.Context) error {
	switch {
	case s.schedule != "":
		return s.runCron(ctx)
	case s.every > 0:
		return s.runEvery(ctx)
	}
	return s.job(ctx)
}

func (s *Scheduler) runEvery(ctx context.Context) error {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for run := 1; ; run++ {
		s.runJob(ctx, run)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	run := 0
	if _, err := c.AddFunc(s.schedule, func() {
		run++
		s.runJob(ctx, run)
	}); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	// first run right away, like interval mode
	run++
	s.runJob(ctx, run)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, run int) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "run", run, "err", err)
	}
	s.logger.Info("scheduled run finished", "run", run, "took", time.Since(start).Round(time.Second))
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
