// Package metrics holds the Prometheus collectors for the discovery engine.
//
// All methods are safe on a nil *Metrics so callers can run without a
// registry in tests and tools.
package metrics

import (
	"context"
	"net/http"

	"swift-ai-market/internal/entity"
	"swift-ai-market/pkg/reaper"
	"swift-ai-market/pkg/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "discovery"

type Metrics struct {
	registry *prometheus.Registry

	activeSessions  prometheus.Gauge
	activeUsers     prometheus.Gauge
	sessionsStarted prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	reaperSweep     prometheus.Histogram
	reaperEnded     prometheus.Counter
	reaperFailed    prometheus.Counter
	searches        *prometheus.CounterVec
	embeddingJobs   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently in the active state.",
		}),
		activeUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_users",
			Help:      "Distinct users with at least one active session.",
		}),
		sessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started from chat suggestions.",
		}),
		sessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended, by reason.",
		}, []string{"reason"}),
		reaperSweep: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reaper_sweep_duration_seconds",
			Help:      "Duration of inactivity reaper sweeps.",
			Buckets:   prometheus.DefBuckets,
		}),
		reaperEnded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_sessions_ended_total",
			Help:      "Sessions ended by the inactivity reaper.",
		}),
		reaperFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_failures_total",
			Help:      "Per-session end failures skipped by the reaper.",
		}),
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Semantic searches, by outcome.",
		}, []string{"outcome"}),
		embeddingJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_jobs_total",
			Help:      "Product embedding jobs, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SessionStarted(ctx context.Context, s *entity.Session) {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) SessionEnded(ctx context.Context, s *entity.Session, reason session.EndReason) {
	if m == nil {
		return
	}
	m.sessionsEnded.WithLabelValues(string(reason)).Inc()
}

// ObserveSweep is installed as the reaper's sweep hook.
func (m *Metrics) ObserveSweep(r reaper.Report) {
	if m == nil {
		return
	}
	m.reaperSweep.Observe(r.Duration.Seconds())
	m.reaperEnded.Add(float64(r.Ended))
	m.reaperFailed.Add(float64(r.Failed))
}

func (m *Metrics) SetActive(sessions, users int64) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(sessions))
	m.activeUsers.Set(float64(users))
}

func (m *Metrics) SearchServed(degraded bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EmbeddingJob(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.embeddingJobs.WithLabelValues(result).Inc()
}
