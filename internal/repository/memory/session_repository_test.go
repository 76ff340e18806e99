package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"swift-ai-market/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newActive(t *testing.T, repo *SessionRepository, productId int64, user string, at time.Time) *entity.Session {
	t.Helper()
	s := &entity.Session{
		ProductId:      productId,
		UserIdentifier: user,
		Status:         entity.SessionStatusActive,
		StartedAt:      at,
		LastActivityAt: at,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestSessionRepository_CreateAssignsId(t *testing.T) {
	repo := NewSessionRepository()
	s := newActive(t, repo, 1, "u1", t0)
	assert.NotEqual(t, uuid.Nil, s.Id)

	got, err := repo.FindByID(context.Background(), s.Id)
	require.NoError(t, err)
	assert.Equal(t, s.ProductId, got.ProductId)

	missing, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionRepository_TouchIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	s := newActive(t, repo, 1, "u1", t0)

	changed, err := repo.Touch(ctx, s.Id, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Touch(ctx, s.Id, t0.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, changed)

	got, _ := repo.FindByID(ctx, s.Id)
	assert.Equal(t, t0.Add(time.Minute), got.LastActivityAt)
}

func TestSessionRepository_EndOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	s := newActive(t, repo, 1, "u1", t0)

	changed, err := repo.End(ctx, s.Id, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.End(ctx, s.Id, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	got, _ := repo.FindByID(ctx, s.Id)
	assert.Equal(t, entity.SessionStatusEnded, got.Status)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, t0.Add(time.Minute), *got.EndedAt)

	changed, err = repo.Touch(ctx, s.Id, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSessionRepository_ConcurrentEnd(t *testing.T) {
	repo := NewSessionRepository()
	s := newActive(t, repo, 1, "u1", t0)

	var transitions int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			changed, err := repo.End(context.Background(), s.Id, t0.Add(time.Duration(i)*time.Second))
			if assert.NoError(t, err) && changed {
				atomic.AddInt32(&transitions, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), transitions)
}

func TestSessionRepository_FindIdle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	old := newActive(t, repo, 1, "u1", t0)
	edge := newActive(t, repo, 2, "u2", t0.Add(5*time.Minute))
	newActive(t, repo, 3, "u3", t0.Add(9*time.Minute))
	ended := newActive(t, repo, 4, "u4", t0)
	_, err := repo.End(ctx, ended.Id, t0.Add(time.Minute))
	require.NoError(t, err)

	idle, err := repo.FindIdle(ctx, t0.Add(5*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, idle, 1)
	assert.Equal(t, old.Id, idle[0].Id)

	idle, err = repo.FindIdle(ctx, t0.Add(6*time.Minute), 1)
	require.NoError(t, err)
	require.Len(t, idle, 1)
	assert.Equal(t, old.Id, idle[0].Id)

	idle, err = repo.FindIdle(ctx, t0.Add(6*time.Minute), 0)
	require.NoError(t, err)
	assert.Len(t, idle, 2)
	assert.Equal(t, edge.Id, idle[1].Id)
}

func TestSessionRepository_Counts(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	newActive(t, repo, 1, "alice", t0)
	newActive(t, repo, 1, "bob", t0)
	newActive(t, repo, 2, "alice", t0.Add(-48*time.Hour))
	s := newActive(t, repo, 3, "carol", t0)
	_, err := repo.End(ctx, s.Id, t0)
	require.NoError(t, err)

	active, err := repo.CountActiveByProduct(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []entity.ProductSessionCount{{ProductId: 1, Count: 2}, {ProductId: 2, Count: 1}}, active)

	active, err = repo.CountActiveByProduct(ctx, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []entity.ProductSessionCount{{ProductId: 2, Count: 1}}, active)

	recent, err := repo.CountByProductSince(ctx, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []entity.ProductSessionCount{{ProductId: 1, Count: 2}, {ProductId: 3, Count: 1}}, recent)

	all, err := repo.CountByProductSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	users, err := repo.CountActiveUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), users)
}
