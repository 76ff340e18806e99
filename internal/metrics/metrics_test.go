package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"swift-ai-market/pkg/reaper"
	"swift-ai-market/pkg/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SessionLifecycle(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.SessionStarted(ctx, nil)
	m.SessionStarted(ctx, nil)
	m.SessionEnded(ctx, nil, session.ReasonExplicit)
	m.SessionEnded(ctx, nil, session.ReasonReaper)
	m.SessionEnded(ctx, nil, session.ReasonReaper)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsEnded.WithLabelValues("explicit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsEnded.WithLabelValues("reaper")))
}

func TestMetrics_ObserveSweep(t *testing.T) {
	m := New()
	m.ObserveSweep(reaper.Report{Ended: 3, Failed: 1, Duration: 20 * time.Millisecond})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.reaperEnded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reaperFailed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.reaperSweep))
}

func TestMetrics_Gauges(t *testing.T) {
	m := New()
	m.SetActive(7, 4)
	m.SearchServed(true)
	m.SearchServed(false)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeUsers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("degraded")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionStarted(context.Background(), nil)
		m.SessionEnded(context.Background(), nil, session.ReasonExplicit)
		m.ObserveSweep(reaper.Report{})
		m.SetActive(1, 1)
		m.SearchServed(true)
		m.EmbeddingJob(false)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.EmbeddingJob(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `discovery_embedding_jobs_total{result="ok"} 1`)
}
