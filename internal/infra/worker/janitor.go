// Package worker runs the dead-letter janitor: a cron-scheduled sweep that
// prunes expired entries and refreshes the per-queue gauges.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Maintainer is the dead-letter surface the janitor drives.
type Maintainer interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
	RefreshGauges(ctx context.Context) error
}

// Janitor schedules retention sweeps over the dead-letter store.
type Janitor struct {
	cfg     JanitorConfig
	svc     Maintainer
	logger  *slog.Logger
	metrics *JanitorMetrics
	cron    *cron.Cron
}

// NewJanitor creates a janitor. The configuration must already be validated.
func NewJanitor(cfg JanitorConfig, svc Maintainer, logger *slog.Logger, metrics *JanitorMetrics) (*Janitor, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	j := &Janitor{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		cron:    cron.New(cron.WithLocation(loc)),
	}
	if _, err := j.cron.AddFunc(cfg.SweepSchedule, j.runSweep); err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return j, nil
}

// Start begins the schedule and blocks until the context is cancelled. Any
// sweep already running is allowed to finish.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("janitor started",
		slog.String("schedule", j.cfg.SweepSchedule),
		slog.String("timezone", j.cfg.Timezone),
		slog.Duration("retention", j.cfg.Retention))
	j.cron.Start()

	<-ctx.Done()
	stopCtx := j.cron.Stop()
	<-stopCtx.Done()
	j.logger.Info("janitor stopped")
}

// RunOnce executes a single sweep outside the schedule.
func (j *Janitor) RunOnce(ctx context.Context) error {
	return j.sweep(ctx)
}

func (j *Janitor) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.SweepTimeout)
	defer cancel()

	if err := j.sweep(ctx); err != nil {
		j.logger.Error("retention sweep failed", slog.Any("error", err))
	}
}

func (j *Janitor) sweep(ctx context.Context) error {
	start := time.Now()

	pruned, err := j.svc.Prune(ctx, j.cfg.Retention)
	if err != nil {
		j.metrics.RecordSweepRun("failure")
		return fmt.Errorf("sweep: %w", err)
	}
	if err := j.svc.RefreshGauges(ctx); err != nil {
		j.metrics.RecordSweepRun("failure")
		return fmt.Errorf("sweep: %w", err)
	}

	j.metrics.RecordSweepRun("success")
	j.metrics.RecordSweepDuration(time.Since(start).Seconds())
	j.metrics.RecordEntriesPruned(pruned)
	j.metrics.RecordLastSuccess()

	j.logger.Info("retention sweep completed",
		slog.Int64("pruned", pruned),
		slog.Duration("took", time.Since(start)))
	return nil
}
