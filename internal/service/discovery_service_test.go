package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/contract"
	"swift-ai-market/internal/repository/memory"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/llm"
	"swift-ai-market/pkg/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hitIds(hits []*dto.SearchHit) []int64 {
	out := make([]int64, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Product.Id)
	}
	return out
}

func TestDiscovery_Search(t *testing.T) {
	f := newFixture(t)

	res, err := f.discovery.Search(context.Background(), &dto.SearchRequest{Query: "wireless headphones"})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, hitIds(res.Context))
	assert.Equal(t, []int64{1}, hitIds(res.Suggestions))
	assert.Equal(t, "Noise Cancelling Headphones", res.Context[0].Product.Name)
	assert.InDelta(t, 1.0, res.Context[0].Similarity, 1e-6)
	assert.True(t, res.Context[0].Product.HasEmbedding)
	assert.False(t, res.Degraded)
}

func TestDiscovery_SearchDropsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.products.Delete(context.Background(), 1))

	res, err := f.discovery.Search(context.Background(), &dto.SearchRequest{Query: "wireless headphones"})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, hitIds(res.Context))
	assert.Empty(t, res.Suggestions)
}

func TestDiscovery_SearchDegrades(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{name: "embedding failure", setup: func(f *fixture) { f.embedder.err = errors.New("provider down") }},
		{name: "store outage", setup: func(f *fixture) { f.products.down = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			res, err := f.discovery.Search(context.Background(), &dto.SearchRequest{Query: "wireless headphones"})
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Empty(t, res.Context)
			assert.Empty(t, res.Suggestions)
		})
	}
}

func TestDiscovery_RecordSuggestedProducts(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unknown products are skipped; a cancelled request still records.
	ids := f.discovery.RecordSuggestedProducts(ctx, "user-1", []int64{1, 99, 2})
	require.Len(t, ids, 2)

	counts, err := f.discovery.GetActiveSessionCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 1, 2: 1}, counts)
}

func TestDiscovery_RecordActivityAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.discovery.RecordSuggestedProducts(ctx, "user-1", []int64{3})
	require.Len(t, ids, 1)

	assert.NoError(t, f.discovery.RecordActivity(ctx, ids[0]))
	assert.NoError(t, f.discovery.RecordActivity(ctx, uuid.New()))

	first, err := f.discovery.CloseSession(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, first.Transitioned)
	assert.True(t, first.Recorded)
	assert.Equal(t, string(entity.SessionStatusEnded), first.Session.Status)

	second, err := f.discovery.CloseSession(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, second.Transitioned)
	assert.Equal(t, first.Session.EndedAt, second.Session.EndedAt)

	_, err = f.discovery.CloseSession(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}

// ctxSessions fails Touch on a done context, as a database driver would.
type ctxSessions struct {
	contract.SessionRepository
}

func (c *ctxSessions) Touch(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.SessionRepository.Touch(ctx, id, at)
}

func TestDiscovery_RecordActivitySurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	uow := memory.NewRepositoryFactory(f.products, &ctxSessions{SessionRepository: f.sessions})
	manager := session.NewManager(uow, logger.NewNopLogger(), session.WithClock(clock), session.WithRetryWait(time.Millisecond))
	discovery := NewDiscoveryService(uow, f.retriever, manager, f.popularity, f.llm, nil, logger.NewNopLogger(), time.Second, time.Second)

	ids := discovery.RecordSuggestedProducts(context.Background(), "user-1", []int64{1})
	require.Len(t, ids, 1)

	now = now.Add(4 * time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, discovery.RecordActivity(ctx, ids[0]))

	s, err := manager.Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, now, s.LastActivityAt)
}

func TestDiscovery_GetPopularProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.discovery.RecordSuggestedProducts(ctx, "a", []int64{2, 3})
	f.discovery.RecordSuggestedProducts(ctx, "b", []int64{2, 3})
	f.discovery.RecordSuggestedProducts(ctx, "c", []int64{1})

	res, err := f.discovery.GetPopularProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	// 2 and 3 tie on sessions; 3 has the higher rating.
	assert.Equal(t, int64(3), res[0].Product.Id)
	assert.Equal(t, int64(2), res[1].Product.Id)
	assert.Equal(t, int64(2), res[0].SessionCount)
}

func TestDiscovery_Chat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.discovery.Chat(ctx, &dto.ChatRequest{
		UserIdentifier: "user-7",
		Message:        "wireless headphones",
		History: []dto.ChatMessage{
			{Text: "hi", Sender: "user"},
			{Text: "Hello! What are you looking for?", Sender: "assistant"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, f.llm.answer, res.Answer)
	assert.True(t, res.Generated)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, int64(1), res.Suggestions[0].Product.Id)
	require.NotNil(t, res.Suggestions[0].SessionId)

	s, err := f.manager.Get(ctx, *res.Suggestions[0].SessionId)
	require.NoError(t, err)
	assert.Equal(t, "user-7", s.UserIdentifier)

	require.Len(t, f.llm.got, 4)
	assert.Equal(t, llm.RoleSystem, f.llm.got[0].Role)
	assert.Contains(t, f.llm.got[0].Content, "Noise Cancelling Headphones")
	assert.Contains(t, f.llm.got[0].Content, "Bluetooth Speaker")
	assert.Equal(t, llm.RoleAssistant, f.llm.got[2].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "wireless headphones"}, f.llm.got[3])
}

func TestDiscovery_ChatFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{name: "provider error", err: errors.New("503 from upstream")},
		{name: "empty answer", answer: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.llm.answer = tt.answer
			f.llm.err = tt.err

			res, err := f.discovery.Chat(context.Background(), &dto.ChatRequest{UserIdentifier: "u", Message: "wireless headphones"})
			require.NoError(t, err)
			assert.Equal(t, FallbackAnswer, res.Answer)
			assert.False(t, res.Generated)
			// Suggestions and their sessions survive a failed generation.
			require.Len(t, res.Suggestions, 1)
			assert.NotNil(t, res.Suggestions[0].SessionId)
		})
	}
}

func TestDiscovery_ChatWithoutMatches(t *testing.T) {
	f := newFixture(t)

	res, err := f.discovery.Chat(context.Background(), &dto.ChatRequest{UserIdentifier: "u", Message: "something unrelated"})
	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
	assert.Contains(t, f.llm.got[0].Content, "No catalog product matched")

	active, err := f.popularity.ActiveSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, active)
}
