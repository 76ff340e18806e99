package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/embedding"
	"swift-ai-market/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	block  bool
	task   string
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.task = taskType
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vector},
	}, nil
}

func newTestRetriever(t *testing.T, emb embedding.EmbeddingProvider, idx *vectorindex.Index) *Retriever {
	t.Helper()
	a, err := NewAssembler(DefaultThresholds())
	require.NoError(t, err)
	return NewRetriever(emb, idx, a, 50*time.Millisecond, logger.NewNopLogger())
}

func seededIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	idx := vectorindex.New()
	require.NoError(t, idx.Upsert(1, []float32{1, 0}))
	require.NoError(t, idx.Upsert(2, []float32{0.6, 0.8}))
	require.NoError(t, idx.Upsert(3, []float32{0, 1}))
	return idx
}

func TestRetriever_Search(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	r := newTestRetriever(t, emb, seededIndex(t))

	view, err := r.Search(context.Background(), "wireless headphones")
	require.NoError(t, err)

	assert.Equal(t, embedding.TaskRetrievalQuery, emb.task)
	assert.Equal(t, []int64{1, 2}, ids(view.Context))
	assert.Equal(t, []int64{1}, ids(view.Suggestions))
	assert.False(t, view.Degraded)
}

func TestRetriever_EmbeddingFailureDegrades(t *testing.T) {
	tests := []struct {
		name string
		emb  *fakeEmbedder
	}{
		{name: "provider error", emb: &fakeEmbedder{err: errors.New("connection refused")}},
		{name: "timeout", emb: &fakeEmbedder{block: true}},
		{name: "empty vector", emb: &fakeEmbedder{vector: []float32{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRetriever(t, tt.emb, seededIndex(t))
			view, err := r.Search(context.Background(), "anything")
			require.NoError(t, err)
			assert.True(t, view.Degraded)
			assert.Empty(t, view.Context)
			assert.Empty(t, view.Suggestions)
		})
	}
}

func TestRetriever_EmbedWrapsFailure(t *testing.T) {
	r := newTestRetriever(t, &fakeEmbedder{err: errors.New("boom")}, vectorindex.New())
	_, err := r.Embed(context.Background(), "x", embedding.TaskRetrievalDocument)
	assert.ErrorIs(t, err, apperr.ErrEmbeddingFailed)
}

func TestRetriever_DimensionMismatchIsReturned(t *testing.T) {
	r := newTestRetriever(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, seededIndex(t))
	_, err := r.Search(context.Background(), "query")
	assert.ErrorIs(t, err, apperr.ErrDimensionMismatch)
}

func TestRetriever_EmptyIndex(t *testing.T) {
	r := newTestRetriever(t, &fakeEmbedder{vector: []float32{1, 0}}, vectorindex.New())
	view, err := r.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Empty(t, view.Context)
	assert.False(t, view.Degraded)
}

func TestRetriever_LogsUnderRetrievalModule(t *testing.T) {
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "app.log.json"))
	a, err := NewAssembler(DefaultThresholds())
	require.NoError(t, err)
	r := NewRetriever(&fakeEmbedder{err: errors.New("quota exceeded")}, seededIndex(t), a, 50*time.Millisecond, log)

	_, err = r.Search(context.Background(), "wireless headphones")
	require.NoError(t, err)
	require.NoError(t, log.Sync())

	entries, err := log.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "RETRIEVAL", entries[0].Module)
}
