// Package session owns the lifecycle of engagement sessions.
//
// A session is created active, may be touched any number of times, and ends
// exactly once, either by an explicit close or by the inactivity reaper. Every
// status change is a conditional write in the store, so concurrent callers
// never double-end a session and never resurrect an ended one.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/retry"

	"github.com/google/uuid"
)

const module = "SESSION"

type EndReason string

const (
	ReasonExplicit EndReason = "explicit"
	ReasonReaper   EndReason = "reaper"
)

// EventPublisher is notified after a lifecycle change has been stored.
// Implementations handle their own failures.
type EventPublisher interface {
	SessionStarted(ctx context.Context, s *entity.Session)
	SessionEnded(ctx context.Context, s *entity.Session, reason EndReason)
}

// Outcome is the result of End. Transitioned is true only for the one caller
// whose write moved the session from active to ended.
type Outcome struct {
	Session      *entity.Session
	Transitioned bool
}

type Manager struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	clock      func() time.Time
	retryWait  time.Duration
	publishers []EventPublisher
}

type Option func(*Manager)

func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

func WithRetryWait(d time.Duration) Option {
	return func(m *Manager) { m.retryWait = d }
}

func WithPublisher(p EventPublisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
}

func NewManager(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger, opts ...Option) *Manager {
	m := &Manager{
		uowFactory: uowFactory,
		logger:     logger,
		clock:      time.Now,
		retryWait:  retry.DefaultWait,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a new active session. Every call creates a new session, even
// for a user and product that already have an active one.
func (m *Manager) Start(ctx context.Context, productId int64, userIdentifier string) (uuid.UUID, error) {
	if strings.TrimSpace(userIdentifier) == "" {
		return uuid.Nil, fmt.Errorf("%w: user identifier is required", apperr.ErrInvalidInput)
	}

	now := m.clock()
	s := &entity.Session{
		Id:             uuid.New(),
		ProductId:      productId,
		UserIdentifier: userIdentifier,
		Status:         entity.SessionStatusActive,
		StartedAt:      now,
		LastActivityAt: now,
	}

	err := retry.Do(ctx, m.retryWait, func() error {
		return m.create(ctx, s)
	})
	if err != nil {
		return uuid.Nil, err
	}

	m.logger.Info(module, "Session started", map[string]interface{}{
		"session_id": s.Id.String(),
		"product_id": productId,
		"user":       userIdentifier,
	})
	for _, p := range m.publishers {
		p.SessionStarted(ctx, s)
	}
	return s.Id, nil
}

func (m *Manager) create(ctx context.Context, s *entity.Session) (err error) {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("%w: begin: %w", apperr.ErrStoreUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	exists, err := uow.ProductRepository().Exists(ctx, s.ProductId)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", apperr.ErrProductNotFound, s.ProductId)
	}

	if err := uow.SessionRepository().Create(ctx, s); err != nil {
		return err
	}
	return uow.Commit()
}

// Touch records activity now. Touching an ended or unknown session is a
// no-op, and LastActivityAt never moves backwards.
func (m *Manager) Touch(ctx context.Context, id uuid.UUID) error {
	now := m.clock()
	repo := m.uowFactory.NewUnitOfWork(ctx).SessionRepository()

	_, err := retry.Once(ctx, m.retryWait, func() (bool, error) {
		return repo.Touch(ctx, id, now)
	})
	return err
}

// End closes the session on behalf of its user.
func (m *Manager) End(ctx context.Context, id uuid.UUID) (Outcome, error) {
	return m.EndWithReason(ctx, id, ReasonExplicit)
}

// EndWithReason is idempotent: ending an ended session succeeds and leaves
// EndedAt as it was. Unknown ids fail with apperr.ErrSessionNotFound.
func (m *Manager) EndWithReason(ctx context.Context, id uuid.UUID, reason EndReason) (Outcome, error) {
	now := m.clock()
	repo := m.uowFactory.NewUnitOfWork(ctx).SessionRepository()

	transitioned, err := retry.Once(ctx, m.retryWait, func() (bool, error) {
		return repo.End(ctx, id, now)
	})
	if err != nil {
		return Outcome{}, err
	}

	s, err := retry.Once(ctx, m.retryWait, func() (*entity.Session, error) {
		return repo.FindByID(ctx, id)
	})
	if err != nil {
		return Outcome{}, err
	}
	if s == nil {
		return Outcome{}, fmt.Errorf("%w: %s", apperr.ErrSessionNotFound, id)
	}

	if transitioned {
		m.logger.Info(module, "Session ended", map[string]interface{}{
			"session_id": id.String(),
			"product_id": s.ProductId,
			"reason":     string(reason),
		})
		for _, p := range m.publishers {
			p.SessionEnded(ctx, s, reason)
		}
	}
	return Outcome{Session: s, Transitioned: transitioned}, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	repo := m.uowFactory.NewUnitOfWork(ctx).SessionRepository()
	s, err := retry.Once(ctx, m.retryWait, func() (*entity.Session, error) {
		return repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSessionNotFound, id)
	}
	return s, nil
}
