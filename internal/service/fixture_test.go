package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/contract"
	"swift-ai-market/internal/repository/memory"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/embedding"
	"swift-ai-market/pkg/llm"
	"swift-ai-market/pkg/popularity"
	"swift-ai-market/pkg/retrieval"
	"swift-ai-market/pkg/session"
	"swift-ai-market/pkg/vectorindex"

	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps exact texts to vectors. Unknown texts fail.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for text")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: v}}, nil
}

type fakeLLM struct {
	answer string
	err    error
	got    []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.got = history
	return f.answer, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.answer, f.err
}

// flakyProducts fails FindByIDs with ErrStoreUnavailable while down is set.
type flakyProducts struct {
	contract.ProductRepository
	down bool
}

func (f *flakyProducts) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	if f.down {
		return nil, apperr.ErrStoreUnavailable
	}
	return f.ProductRepository.FindByIDs(ctx, ids)
}

var catalog = []*entity.Product{
	{Id: 1, Name: "Noise Cancelling Headphones", Description: "Over-ear, 30h battery", Category: "Audio", Price: 199.99, Rating: 4.6, ReviewCount: 812},
	{Id: 2, Name: "Bluetooth Speaker", Description: "Waterproof portable speaker", Category: "Audio", Price: 59.5, Rating: 4.2, ReviewCount: 230},
	{Id: 3, Name: "Mechanical Keyboard", Description: "Hot-swappable switches", Category: "Peripherals", Price: 89, Rating: 4.4, ReviewCount: 95},
}

var vectors = map[int64][]float32{
	1: {1, 0},
	2: {0.6, 0.8},
	3: {0, 1},
}

type fixture struct {
	uow        unitofwork.RepositoryFactory
	products   *flakyProducts
	sessions   *memory.SessionRepository
	index      *vectorindex.Index
	embedder   *fakeEmbedder
	llm        *fakeLLM
	manager    *session.Manager
	popularity *popularity.Aggregator
	retriever  *retrieval.Retriever
	discovery  IDiscoveryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	products := &flakyProducts{ProductRepository: memory.NewProductRepository()}
	sessions := memory.NewSessionRepository()
	index := vectorindex.New()
	for _, p := range catalog {
		cp := *p
		cp.Embedding = vectors[p.Id]
		require.NoError(t, products.Create(ctx, &cp))
		require.NoError(t, index.Upsert(p.Id, vectors[p.Id]))
	}

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"wireless headphones": {1, 0},
		"something unrelated": {-1, 0},
	}}
	for _, p := range catalog {
		embedder.vectors[p.SearchText()] = vectors[p.Id]
	}

	uow := memory.NewRepositoryFactory(products, sessions)
	log := logger.NewNopLogger()
	assembler, err := retrieval.NewAssembler(retrieval.DefaultThresholds())
	require.NoError(t, err)

	f := &fixture{
		uow:        uow,
		products:   products,
		sessions:   sessions,
		index:      index,
		embedder:   embedder,
		llm:        &fakeLLM{answer: "The Noise Cancelling Headphones are a great pick."},
		manager:    session.NewManager(uow, log, session.WithRetryWait(time.Millisecond)),
		popularity: popularity.NewAggregator(uow, log),
		retriever:  retrieval.NewRetriever(embedder, index, assembler, time.Second, log),
	}
	f.discovery = NewDiscoveryService(uow, f.retriever, f.manager, f.popularity, f.llm, nil, log, time.Second, time.Second)
	return f
}
