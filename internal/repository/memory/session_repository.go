package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository stores sessions in a non-expiring go-cache. Conditional
// writes hold mu so that check and set happen as one step.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func cloneSession(s *entity.Session) *entity.Session {
	cp := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func (r *SessionRepository) snapshot() []*entity.Session {
	items := r.cache.Items()
	out := make([]*entity.Session, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*entity.Session))
	}
	return out
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	r.cache.Set(session.Id.String(), cloneSession(session), cache.NoExpiration)
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	if x, found := r.cache.Get(id.String()); found {
		return cloneSession(x.(*entity.Session)), nil
	}
	return nil, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(id.String())
	if !found {
		return false, nil
	}
	s := x.(*entity.Session)
	if !s.IsActive() || at.Before(s.LastActivityAt) {
		return false, nil
	}
	next := cloneSession(s)
	next.LastActivityAt = at
	r.cache.Set(id.String(), next, cache.NoExpiration)
	return true, nil
}

func (r *SessionRepository) End(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(id.String())
	if !found {
		return false, nil
	}
	s := x.(*entity.Session)
	if !s.IsActive() {
		return false, nil
	}
	next := cloneSession(s)
	next.Status = entity.SessionStatusEnded
	next.EndedAt = &at
	r.cache.Set(id.String(), next, cache.NoExpiration)
	return true, nil
}

func (r *SessionRepository) FindIdle(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Session, error) {
	out := []*entity.Session{}
	for _, s := range r.snapshot() {
		if s.IsActive() && s.LastActivityAt.Before(cutoff) {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.Before(out[j].LastActivityAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func groupByProduct(sessions []*entity.Session, keep func(*entity.Session) bool) []entity.ProductSessionCount {
	counts := make(map[int64]int64)
	for _, s := range sessions {
		if keep(s) {
			counts[s.ProductId]++
		}
	}
	out := make([]entity.ProductSessionCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, entity.ProductSessionCount{ProductId: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductId < out[j].ProductId })
	return out
}

func (r *SessionRepository) CountActiveByProduct(ctx context.Context, productIds []int64) ([]entity.ProductSessionCount, error) {
	wanted := make(map[int64]bool, len(productIds))
	for _, id := range productIds {
		wanted[id] = true
	}
	return groupByProduct(r.snapshot(), func(s *entity.Session) bool {
		return s.IsActive() && (len(wanted) == 0 || wanted[s.ProductId])
	}), nil
}

func (r *SessionRepository) CountByProductSince(ctx context.Context, since time.Time) ([]entity.ProductSessionCount, error) {
	return groupByProduct(r.snapshot(), func(s *entity.Session) bool {
		return since.IsZero() || !s.StartedAt.Before(since)
	}), nil
}

func (r *SessionRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, s := range r.snapshot() {
		if s.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) CountActiveUsers(ctx context.Context) (int64, error) {
	users := make(map[string]struct{})
	for _, s := range r.snapshot() {
		if s.IsActive() {
			users[s.UserIdentifier] = struct{}{}
		}
	}
	return int64(len(users)), nil
}
