package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/metrics"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/llm"
	"swift-ai-market/pkg/popularity"
	"swift-ai-market/pkg/rag/prompt"
	"swift-ai-market/pkg/retrieval"
	"swift-ai-market/pkg/retry"
	"swift-ai-market/pkg/session"
	"swift-ai-market/pkg/vectorindex"

	"github.com/google/uuid"
)

const discoveryModule = "DISCOVERY"

// FallbackAnswer is returned to the user when the model cannot answer.
const FallbackAnswer = "Sorry, I couldn't put an answer together right now. " +
	"Here are the products that best match what you asked for."

// Retriever runs the semantic search behind a chat turn.
type Retriever interface {
	Search(ctx context.Context, query string) (retrieval.View, error)
}

// SessionTracker is the session lifecycle as seen from the chat boundary.
type SessionTracker interface {
	Start(ctx context.Context, productId int64, userIdentifier string) (uuid.UUID, error)
	Touch(ctx context.Context, id uuid.UUID) error
	End(ctx context.Context, id uuid.UUID) (session.Outcome, error)
}

// PopularityReader ranks products by engagement.
type PopularityReader interface {
	ActiveSessionCounts(ctx context.Context, productIds ...int64) (map[int64]int64, error)
	PopularProducts(ctx context.Context, limit int) ([]popularity.PopularProduct, error)
}

type IDiscoveryService interface {
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
	// RecordSuggestedProducts starts one session per suggested product and
	// returns the ids of the sessions that were recorded.
	RecordSuggestedProducts(ctx context.Context, userIdentifier string, productIds []int64) []uuid.UUID
	RecordActivity(ctx context.Context, sessionId uuid.UUID) error
	CloseSession(ctx context.Context, sessionId uuid.UUID) (*dto.CloseSessionResponse, error)
	GetActiveSessionCounts(ctx context.Context) (map[int64]int64, error)
	GetPopularProducts(ctx context.Context, limit int) ([]*dto.PopularProductResponse, error)
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type discoveryService struct {
	uowFactory      unitofwork.RepositoryFactory
	retriever       Retriever
	sessions        SessionTracker
	popularity      PopularityReader
	llmProvider     llm.LLMProvider
	metrics         *metrics.Metrics
	logger          logger.ILogger
	aiTimeout       time.Duration
	trackingTimeout time.Duration
}

func NewDiscoveryService(
	uowFactory unitofwork.RepositoryFactory,
	retriever Retriever,
	sessions SessionTracker,
	popularity PopularityReader,
	llmProvider llm.LLMProvider,
	metrics *metrics.Metrics,
	logger logger.ILogger,
	aiTimeout time.Duration,
	trackingTimeout time.Duration,
) IDiscoveryService {
	return &discoveryService{
		uowFactory:      uowFactory,
		retriever:       retriever,
		sessions:        sessions,
		popularity:      popularity,
		llmProvider:     llmProvider,
		metrics:         metrics,
		logger:          logger,
		aiTimeout:       aiTimeout,
		trackingTimeout: trackingTimeout,
	}
}

func (s *discoveryService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	return s.search(ctx, req.Query)
}

// search runs retrieval and hydrates hits with catalog data. Hits whose
// product no longer exists are dropped. A store outage while hydrating
// degrades to an empty result like an embedding failure does.
func (s *discoveryService) search(ctx context.Context, query string) (*dto.SearchResponse, error) {
	view, err := s.retriever.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	res := &dto.SearchResponse{
		Context:     []*dto.SearchHit{},
		Suggestions: []*dto.SearchHit{},
		Degraded:    view.Degraded,
	}
	if len(view.Context) == 0 {
		s.metrics.SearchServed(res.Degraded)
		return res, nil
	}

	ids := make([]int64, 0, len(view.Context))
	for _, r := range view.Context {
		ids = append(ids, r.ProductId)
	}
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductRepository()
	products, err := retry.Once(ctx, retry.DefaultWait, func() ([]*entity.Product, error) {
		return repo.FindByIDs(ctx, ids)
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrStoreUnavailable) {
			return nil, err
		}
		s.logger.Warn(discoveryModule, "Product lookup failed, returning empty view", map[string]interface{}{
			"error": err.Error(),
		})
		res.Degraded = true
		s.metrics.SearchServed(true)
		return res, nil
	}

	byId := productsById(products)
	res.Context = hydrate(view.Context, byId)
	res.Suggestions = hydrate(view.Suggestions, byId)
	s.metrics.SearchServed(res.Degraded)
	return res, nil
}

func hydrate(results []vectorindex.Result, byId map[int64]*entity.Product) []*dto.SearchHit {
	hits := make([]*dto.SearchHit, 0, len(results))
	for _, r := range results {
		p, ok := byId[r.ProductId]
		if !ok {
			continue
		}
		hits = append(hits, &dto.SearchHit{Product: toProductResponse(p), Similarity: r.Similarity})
	}
	return hits
}

func (s *discoveryService) RecordSuggestedProducts(ctx context.Context, userIdentifier string, productIds []int64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(productIds))
	for _, id := range s.recordSuggestions(ctx, userIdentifier, productIds) {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

// recordSuggestions returns one entry per product, nil where the session could
// not be started. Tracking runs detached from the request so a client that
// disconnects mid-turn still gets its sessions recorded.
func (s *discoveryService) recordSuggestions(ctx context.Context, userIdentifier string, productIds []int64) []*uuid.UUID {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.trackingTimeout)
	defer cancel()

	out := make([]*uuid.UUID, len(productIds))
	for i, productId := range productIds {
		id, err := s.sessions.Start(ctx, productId, userIdentifier)
		if err != nil {
			s.logger.Warn(discoveryModule, "Failed to record suggestion session", map[string]interface{}{
				"product_id": productId,
				"user":       userIdentifier,
				"error":      err.Error(),
			})
			continue
		}
		out[i] = &id
	}
	return out
}

// RecordActivity never fails the caller on a store outage. The write outlives
// a cancelled request.
func (s *discoveryService) RecordActivity(ctx context.Context, sessionId uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.trackingTimeout)
	defer cancel()

	if err := s.sessions.Touch(ctx, sessionId); err != nil {
		s.logger.Warn(discoveryModule, "Failed to record session activity", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
	return nil
}

// CloseSession reports unknown sessions and swallows store outages.
func (s *discoveryService) CloseSession(ctx context.Context, sessionId uuid.UUID) (*dto.CloseSessionResponse, error) {
	out, err := s.sessions.End(ctx, sessionId)
	if err != nil {
		if errors.Is(err, apperr.ErrSessionNotFound) {
			return nil, err
		}
		s.logger.Warn(discoveryModule, "Failed to close session", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return &dto.CloseSessionResponse{Recorded: false}, nil
	}

	return &dto.CloseSessionResponse{
		Session:      toSessionResponse(out.Session),
		Transitioned: out.Transitioned,
		Recorded:     true,
	}, nil
}

func (s *discoveryService) GetActiveSessionCounts(ctx context.Context) (map[int64]int64, error) {
	return s.popularity.ActiveSessionCounts(ctx)
}

func (s *discoveryService) GetPopularProducts(ctx context.Context, limit int) ([]*dto.PopularProductResponse, error) {
	ranked, err := s.popularity.PopularProducts(ctx, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.PopularProductResponse, 0, len(ranked))
	for _, r := range ranked {
		res = append(res, &dto.PopularProductResponse{
			Product:      toProductResponse(r.Product),
			SessionCount: r.SessionCount,
		})
	}
	return res, nil
}

// Chat runs one conversational turn: search, answer grounded on the context
// products, then record a session per suggested product. Neither a failed
// generation nor failed tracking fails the turn.
func (s *discoveryService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	found, err := s.search(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	contextProducts := make([]prompt.ContextProduct, 0, len(found.Context))
	for _, hit := range found.Context {
		contextProducts = append(contextProducts, prompt.ContextProduct{
			Name:        hit.Product.Name,
			Description: hit.Product.Description,
			Category:    hit.Product.Category,
			Price:       hit.Product.Price,
			Rating:      hit.Product.Rating,
			ReviewCount: hit.Product.ReviewCount,
			Similarity:  hit.Similarity,
		})
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		role := llm.RoleUser
		if m.Sender == "assistant" {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Text})
	}

	builder := prompt.NewShoppingBuilder(req.Message, contextProducts, history)
	answer, generated := s.generate(ctx, builder.Messages())

	productIds := make([]int64, 0, len(found.Suggestions))
	for _, hit := range found.Suggestions {
		productIds = append(productIds, hit.Product.Id)
	}
	sessionIds := s.recordSuggestions(ctx, req.UserIdentifier, productIds)

	suggestions := make([]*dto.ChatSuggestion, 0, len(found.Suggestions))
	for i, hit := range found.Suggestions {
		suggestions = append(suggestions, &dto.ChatSuggestion{
			Product:    hit.Product,
			Similarity: hit.Similarity,
			SessionId:  sessionIds[i],
		})
	}

	return &dto.ChatResponse{
		Answer:      answer,
		Suggestions: suggestions,
		Degraded:    found.Degraded,
		Generated:   generated,
	}, nil
}

func (s *discoveryService) generate(ctx context.Context, messages []llm.Message) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	answer, err := s.llmProvider.Chat(ctx, messages)
	if err == nil && answer == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", apperr.ErrGenerationFailed, err)
		s.logger.Error(discoveryModule, "Answer generation failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackAnswer, false
	}
	return answer, true
}
