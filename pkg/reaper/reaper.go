// Package reaper ends sessions that have seen no activity for longer than
// the inactivity timeout. It is the fallback for clients that never close
// their sessions explicitly.
package reaper

import (
	"context"
	"time"

	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/session"

	"github.com/google/uuid"
)

const (
	module = "REAPER"

	DefaultInterval = 2 * time.Minute
	DefaultTimeout  = 10 * time.Minute
)

// Ender is the part of session.Manager the reaper drives.
type Ender interface {
	EndWithReason(ctx context.Context, id uuid.UUID, reason session.EndReason) (session.Outcome, error)
}

// Report summarises one sweep. AlreadyEnded counts sessions that were closed
// by someone else between listing and ending.
type Report struct {
	Cutoff       time.Time     `json:"cutoff"`
	Scanned      int           `json:"scanned"`
	Ended        int           `json:"ended"`
	AlreadyEnded int           `json:"already_ended"`
	Failed       int           `json:"failed"`
	Duration     time.Duration `json:"duration"`
}

type Reaper struct {
	uowFactory unitofwork.RepositoryFactory
	ender      Ender
	logger     logger.ILogger
	interval   time.Duration
	timeout    time.Duration
	batchSize  int
	clock      func() time.Time
	hooks      []func(Report)
}

type Option func(*Reaper)

func WithClock(clock func() time.Time) Option {
	return func(r *Reaper) { r.clock = clock }
}

func WithInterval(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBatchSize caps how many idle sessions one sweep handles. 0 = all.
func WithBatchSize(n int) Option {
	return func(r *Reaper) { r.batchSize = n }
}

// WithSweepHook registers a callback run after every sweep.
func WithSweepHook(hook func(Report)) Option {
	return func(r *Reaper) { r.hooks = append(r.hooks, hook) }
}

func New(uowFactory unitofwork.RepositoryFactory, ender Ender, logger logger.ILogger, opts ...Option) *Reaper {
	r := &Reaper{
		uowFactory: uowFactory,
		ender:      ender,
		logger:     logger,
		interval:   DefaultInterval,
		timeout:    DefaultTimeout,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reaper) Timeout() time.Duration  { return r.timeout }
func (r *Reaper) Interval() time.Duration { return r.interval }

// Sweep ends every active session whose last activity is strictly older than
// now - timeout. A failure on one session is logged and does not stop the
// sweep; only a failure to list candidates is returned.
func (r *Reaper) Sweep(ctx context.Context) (Report, error) {
	started := time.Now()
	report := Report{Cutoff: r.clock().Add(-r.timeout)}

	idle, err := r.uowFactory.NewUnitOfWork(ctx).SessionRepository().FindIdle(ctx, report.Cutoff, r.batchSize)
	if err != nil {
		r.logger.Error(module, "Failed to list idle sessions", map[string]interface{}{
			"error": err.Error(),
		})
		return report, err
	}
	report.Scanned = len(idle)

	for _, s := range idle {
		if ctx.Err() != nil {
			break
		}
		out, err := r.ender.EndWithReason(ctx, s.Id, session.ReasonReaper)
		switch {
		case err != nil:
			report.Failed++
			r.logger.Warn(module, "Failed to end idle session", map[string]interface{}{
				"session_id": s.Id.String(),
				"error":      err.Error(),
			})
		case out.Transitioned:
			report.Ended++
		default:
			report.AlreadyEnded++
		}
	}

	report.Duration = time.Since(started)
	if report.Scanned > 0 {
		r.logger.Info(module, "Sweep complete", map[string]interface{}{
			"scanned":       report.Scanned,
			"ended":         report.Ended,
			"already_ended": report.AlreadyEnded,
			"failed":        report.Failed,
		})
	}
	for _, hook := range r.hooks {
		hook(report)
	}
	return report, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) error {
	r.logger.Info(module, "Reaper started", map[string]interface{}{
		"interval": r.interval.String(),
		"timeout":  r.timeout.String(),
	})

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		_, _ = r.Sweep(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info(module, "Reaper stopped", nil)
			return nil
		case <-ticker.C:
		}
	}
}
