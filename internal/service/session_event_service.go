package service

import (
	"context"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/pkg/events"
	"swift-ai-market/pkg/session"
)

const sessionEventModule = "SESSION_EVENTS"

// sessionEventPublisher forwards session lifecycle changes to the event bus.
// Publishing is best effort: a lost event never fails the session write.
type sessionEventPublisher struct {
	bus     EventBus
	timeout time.Duration
	logger  logger.ILogger
}

func NewSessionEventPublisher(bus EventBus, timeout time.Duration, logger logger.ILogger) session.EventPublisher {
	return &sessionEventPublisher{bus: bus, timeout: timeout, logger: logger}
}

func (p *sessionEventPublisher) SessionStarted(ctx context.Context, s *entity.Session) {
	p.publish(ctx, SessionEvent(events.TypeSessionStarted, s, ""))
}

func (p *sessionEventPublisher) SessionEnded(ctx context.Context, s *entity.Session, reason session.EndReason) {
	p.publish(ctx, SessionEvent(events.TypeSessionEnded, s, reason))
}

func (p *sessionEventPublisher) publish(ctx context.Context, event events.BaseEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.bus.Publish(ctx, event); err != nil {
		p.logger.Warn(sessionEventModule, "Failed to publish session event", map[string]interface{}{
			"type":       event.Type,
			"session_id": event.Data["session_id"],
			"error":      err.Error(),
		})
	}
}

// SessionEvent builds the wire event for a lifecycle change.
func SessionEvent(eventType string, s *entity.Session, reason session.EndReason) events.BaseEvent {
	data := map[string]interface{}{
		"session_id":      s.Id.String(),
		"product_id":      s.ProductId,
		"user_identifier": s.UserIdentifier,
		"status":          string(s.Status),
	}
	occurredAt := s.StartedAt
	if reason != "" {
		data["reason"] = string(reason)
	}
	if s.EndedAt != nil {
		occurredAt = *s.EndedAt
	}
	return events.BaseEvent{Type: eventType, Data: data, OccurredAt: occurredAt}
}
