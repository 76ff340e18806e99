package service

import (
	"context"
	"sync"
	"time"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/metrics"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/pkg/events"
	"swift-ai-market/pkg/session"
)

const realtimeModule = "REALTIME"

// MessageType of metrics snapshots on the admin websocket.
const MetricsSnapshotMessage = "metrics_snapshot"

// Broadcaster delivers a typed message to every connected admin client.
type Broadcaster interface {
	Broadcast(messageType string, payload interface{})
}

// ActivityCounter is the read side of the popularity aggregator used for
// realtime metrics.
type ActivityCounter interface {
	ActiveSessionCounts(ctx context.Context, productIds ...int64) (map[int64]int64, error)
	ActiveUsers(ctx context.Context) (int64, error)
	ActiveSessions(ctx context.Context) (int64, error)
}

// IRealtimeService computes metrics snapshots and pushes them to the admin
// stream. It is a session.EventPublisher for single-instance deployments and
// an event bus handler when lifecycle events arrive over the bus.
type IRealtimeService interface {
	session.EventPublisher
	Snapshot(ctx context.Context, trigger string) (*dto.MetricsSnapshot, error)
	HandleEvent(ctx context.Context, event events.Event) error
}

type realtimeService struct {
	counter     ActivityCounter
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	timeout     time.Duration
	logger      logger.ILogger
	clock       func() time.Time

	// mu serializes pushes.
	mu sync.Mutex
}

func NewRealtimeService(
	counter ActivityCounter,
	broadcaster Broadcaster,
	metrics *metrics.Metrics,
	timeout time.Duration,
	logger logger.ILogger,
) IRealtimeService {
	return &realtimeService{
		counter:     counter,
		broadcaster: broadcaster,
		metrics:     metrics,
		timeout:     timeout,
		logger:      logger,
		clock:       time.Now,
	}
}

func (s *realtimeService) Snapshot(ctx context.Context, trigger string) (*dto.MetricsSnapshot, error) {
	byProduct, err := s.counter.ActiveSessionCounts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.counter.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.counter.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.SetActive(total, users)
	return &dto.MetricsSnapshot{
		ActiveSessions:  total,
		ActiveUsers:     users,
		ActiveByProduct: byProduct,
		Trigger:         trigger,
		At:              s.clock(),
	}, nil
}

func (s *realtimeService) SessionStarted(ctx context.Context, _ *entity.Session) {
	s.push(ctx, events.TypeSessionStarted)
}

func (s *realtimeService) SessionEnded(ctx context.Context, _ *entity.Session, _ session.EndReason) {
	s.push(ctx, events.TypeSessionEnded)
}

// HandleEvent pushes a snapshot for session lifecycle events and ignores the
// rest of the stream.
func (s *realtimeService) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case events.TypeSessionStarted, events.TypeSessionEnded:
		s.push(ctx, event.EventType())
	}
	return nil
}

func (s *realtimeService) push(ctx context.Context, trigger string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.Snapshot(ctx, trigger)
	if err != nil {
		s.logger.Warn(realtimeModule, "Failed to compute metrics snapshot", map[string]interface{}{
			"trigger": trigger,
			"error":   err.Error(),
		})
		return
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(MetricsSnapshotMessage, snapshot)
	}
}
