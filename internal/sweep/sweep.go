// Package sweep runs the periodic background jobs that move time-based
// state forward: expiring stale lead offers, expiring unsold leads and
// locking call dispute windows.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/metrics"

	"github.com/robfig/cron/v3"
)

// batchLimit bounds how many rows a single sweep run touches so a backlog
// never turns one tick into a long transaction.
const batchLimit = 200

type OfferExpirer interface {
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

type LeadExpirer interface {
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

type CallLocker interface {
	LockExpiredDisputeWindows(ctx context.Context, window time.Duration, limit int) (int, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (billing.Settings, error)
}

type Runner struct {
	offers   OfferExpirer
	leads    LeadExpirer
	calls    CallLocker
	settings SettingsSource

	log     *slog.Logger
	metrics *metrics.Metrics
	cron    *cron.Cron
}

func NewRunner(offers OfferExpirer, leads LeadExpirer, calls CallLocker, settings SettingsSource, log *slog.Logger, m *metrics.Metrics) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		offers:   offers,
		leads:    leads,
		calls:    calls,
		settings: settings,
		log:      log,
		metrics:  m,
		cron:     cron.New(),
	}
}

// Start schedules the jobs and launches the cron loop.
func (r *Runner) Start() error {
	jobs := []struct {
		schedule string
		name     string
		run      func(context.Context) (int, error)
	}{
		{"@every 1m", "expire_offers", r.expireOffers},
		{"@every 5m", "expire_leads", r.expireLeads},
		{"@every 10m", "lock_dispute_windows", r.lockDisputeWindows},
	}
	for _, j := range jobs {
		job := j
		if _, err := r.cron.AddFunc(job.schedule, func() { r.runJob(job.name, job.run) }); err != nil {
			return err
		}
	}
	r.cron.Start()
	return nil
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (r *Runner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.log.Warn("sweep shutdown timed out with jobs still running")
	}
}

func (r *Runner) runJob(name string, run func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	n, err := run(ctx)
	elapsed := time.Since(start)

	if r.metrics != nil {
		r.metrics.SweepRuns.WithLabelValues(name).Inc()
		r.metrics.SweepDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	if err != nil {
		r.log.ErrorContext(ctx, "sweep job failed", "job", name, "error", err)
		return
	}
	if n > 0 {
		r.log.InfoContext(ctx, "sweep job done", "job", name, "affected", n, "elapsed", elapsed)
	}
}

func (r *Runner) expireOffers(ctx context.Context) (int, error) {
	n, err := r.offers.ExpireOverdue(ctx, batchLimit)
	if err == nil && r.metrics != nil && n > 0 {
		r.metrics.OffersExpired.Add(float64(n))
	}
	return n, err
}

func (r *Runner) expireLeads(ctx context.Context) (int, error) {
	return r.leads.ExpireOverdue(ctx, batchLimit)
}

func (r *Runner) lockDisputeWindows(ctx context.Context) (int, error) {
	settings, err := r.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	return r.calls.LockExpiredDisputeWindows(ctx, settings.DisputeWindow(), batchLimit)
}
