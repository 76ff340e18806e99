package popularity

import (
	"context"
	"testing"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	products *memory.ProductRepository
	sessions *memory.SessionRepository
	agg      *Aggregator
}

func newFixture(t *testing.T, products ...*entity.Product) *fixture {
	t.Helper()
	f := &fixture{
		products: memory.NewProductRepository(),
		sessions: memory.NewSessionRepository(),
	}
	for _, p := range products {
		require.NoError(t, f.products.Create(context.Background(), p))
	}
	f.agg = NewAggregator(
		memory.NewRepositoryFactory(f.products, f.sessions),
		logger.NewNopLogger(),
		WithClock(func() time.Time { return now }),
	)
	return f
}

func (f *fixture) addSessions(t *testing.T, productId int64, n int, status entity.SessionStatus, startedAt time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		s := &entity.Session{
			Id:             uuid.New(),
			ProductId:      productId,
			UserIdentifier: "user",
			Status:         entity.SessionStatusActive,
			StartedAt:      startedAt,
			LastActivityAt: startedAt,
		}
		require.NoError(t, f.sessions.Create(context.Background(), s))
		if status == entity.SessionStatusEnded {
			_, err := f.sessions.End(context.Background(), s.Id, startedAt.Add(time.Minute))
			require.NoError(t, err)
		}
	}
}

func productIds(ranked []PopularProduct) []int64 {
	out := make([]int64, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Product.Id)
	}
	return out
}

func TestPopularProducts_TieBrokenByRating(t *testing.T) {
	f := newFixture(t,
		&entity.Product{Id: 1, Name: "P1", Rating: 4.0, ReviewCount: 900},
		&entity.Product{Id: 2, Name: "P2", Rating: 4.8, ReviewCount: 10},
		&entity.Product{Id: 3, Name: "P3", Rating: 5.0, ReviewCount: 50},
	)
	f.addSessions(t, 1, 5, entity.SessionStatusActive, now.Add(-time.Hour))
	f.addSessions(t, 2, 3, entity.SessionStatusActive, now.Add(-time.Hour))
	f.addSessions(t, 2, 2, entity.SessionStatusEnded, now.Add(-2*time.Hour))
	f.addSessions(t, 3, 1, entity.SessionStatusEnded, now.Add(-time.Hour))

	top, err := f.agg.PopularProducts(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, productIds(top))
	assert.Equal(t, int64(5), top[0].SessionCount)
	assert.Equal(t, int64(5), top[1].SessionCount)

	all, err := f.agg.PopularProducts(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3}, productIds(all))
}

func TestPopularProducts_ReviewCountThenId(t *testing.T) {
	ranked := []PopularProduct{
		{Product: &entity.Product{Id: 9, Rating: 4.5, ReviewCount: 10}, SessionCount: 2},
		{Product: &entity.Product{Id: 4, Rating: 4.5, ReviewCount: 10}, SessionCount: 2},
		{Product: &entity.Product{Id: 7, Rating: 4.5, ReviewCount: 30}, SessionCount: 2},
		{Product: &entity.Product{Id: 1, Rating: 3.0, ReviewCount: 99}, SessionCount: 3},
	}
	Sort(ranked)
	assert.Equal(t, []int64{1, 7, 4, 9}, productIds(ranked))
}

func TestPopularProducts_WindowAndStaleReferences(t *testing.T) {
	f := newFixture(t,
		&entity.Product{Id: 1, Name: "Recent", Rating: 3},
		&entity.Product{Id: 2, Name: "Old", Rating: 5},
	)
	f.addSessions(t, 1, 1, entity.SessionStatusActive, now.Add(-24*time.Hour))
	f.addSessions(t, 2, 4, entity.SessionStatusEnded, now.Add(-60*24*time.Hour))
	// Product 3 was deleted after its sessions were recorded.
	f.addSessions(t, 3, 7, entity.SessionStatusActive, now.Add(-time.Hour))

	top, err := f.agg.PopularProducts(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, productIds(top))

	unbounded := NewAggregator(memory.NewRepositoryFactory(f.products, f.sessions), logger.NewNopLogger(), WithWindow(0))
	top, err = unbounded.PopularProducts(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, productIds(top))
}

func TestPopularProducts_Empty(t *testing.T) {
	f := newFixture(t)
	top, err := f.agg.PopularProducts(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = f.agg.PopularProducts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestActiveSessionCounts(t *testing.T) {
	f := newFixture(t, &entity.Product{Id: 1}, &entity.Product{Id: 2}, &entity.Product{Id: 3})
	f.addSessions(t, 1, 2, entity.SessionStatusActive, now)
	f.addSessions(t, 1, 3, entity.SessionStatusEnded, now)
	f.addSessions(t, 2, 1, entity.SessionStatusActive, now)

	counts, err := f.agg.ActiveSessionCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 2, 2: 1}, counts)

	counts, err = f.agg.ActiveSessionCounts(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 2, 3: 0}, counts)

	total, err := f.agg.ActiveSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	users, err := f.agg.ActiveUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)
}
