package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/pkg/serverutils"
	"swift-ai-market/internal/repository/memory"
	"swift-ai-market/internal/service"
	internalWS "swift-ai-market/internal/websocket"
	"swift-ai-market/pkg/embedding"
	"swift-ai-market/pkg/llm"
	"swift-ai-market/pkg/popularity"
	"swift-ai-market/pkg/reaper"
	"swift-ai-market/pkg/retrieval"
	"swift-ai-market/pkg/session"
	"swift-ai-market/pkg/vectorindex"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEmbedder struct{}

func (staticEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type staticLLM struct{}

func (staticLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "Try the headphones.", nil
}

func (staticLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", nil
}

type noopPublisher struct{}

func (noopPublisher) SendMessage(ctx context.Context, payload interface{}) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNopLogger()

	products := memory.NewProductRepository()
	require.NoError(t, products.Create(ctx, &entity.Product{Id: 1, Name: "Headphones", Category: "Audio", Rating: 4.5, Embedding: []float32{1, 0}}))
	require.NoError(t, products.Create(ctx, &entity.Product{Id: 2, Name: "Keyboard", Category: "Peripherals", Rating: 4.0, Embedding: []float32{0, 1}}))
	uow := memory.NewRepositoryFactory(products, memory.NewSessionRepository())

	index := vectorindex.New()
	require.NoError(t, index.Upsert(1, []float32{1, 0}))
	require.NoError(t, index.Upsert(2, []float32{0, 1}))

	assembler, err := retrieval.NewAssembler(retrieval.DefaultThresholds())
	require.NoError(t, err)
	retriever := retrieval.NewRetriever(staticEmbedder{}, index, assembler, time.Second, log)
	aggregator := popularity.NewAggregator(uow, log)
	manager := session.NewManager(uow, log, session.WithRetryWait(time.Millisecond))

	hub := internalWS.NewHub(nil, log)
	discovery := service.NewDiscoveryService(uow, retriever, manager, aggregator, staticLLM{}, nil, log, time.Second, time.Second)
	realtime := service.NewRealtimeService(aggregator, hub, nil, time.Second, log)
	admin := service.NewAdminService(uow, aggregator, reaper.New(uow, manager, log), log)
	productService := service.NewProductService(uow, noopPublisher{}, index, nil, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	guard := serverutils.AdminMiddleware("")
	NewDiscoveryController(discovery).RegisterRoutes(api)
	NewProductController(productService, guard).RegisterRoutes(api)
	NewAdminController(admin, discovery, realtime, hub, guard, log).RegisterRoutes(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, serverutils.Response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out serverutils.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestChatFlow(t *testing.T) {
	app := newTestApp(t)

	status, res := do(t, app, http.MethodPost, "/api/chat/v1", map[string]interface{}{
		"user_identifier": "user-1",
		"message":         "headphones please",
	})
	require.Equal(t, http.StatusOK, status)

	data := res.Data.(map[string]interface{})
	assert.Equal(t, "Try the headphones.", data["answer"])
	suggestions := data["suggestions"].([]interface{})
	require.Len(t, suggestions, 1)
	sessionId := suggestions[0].(map[string]interface{})["session_id"].(string)

	status, _ = do(t, app, http.MethodPost, "/api/sessions/v1/"+sessionId+"/activity", nil)
	assert.Equal(t, http.StatusOK, status)

	status, res = do(t, app, http.MethodGet, "/api/admin/v1/sessions/active", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, res.Data.(map[string]interface{})["total"])

	status, res = do(t, app, http.MethodPost, "/api/sessions/v1/"+sessionId+"/close", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, res.Data.(map[string]interface{})["transitioned"])

	status, res = do(t, app, http.MethodGet, "/api/admin/v1/products/popular?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, res.Data.([]interface{}), 1)
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
		body   interface{}
		want   int
	}{
		{http.MethodPost, "/api/chat/v1", map[string]string{"message": "hi"}, http.StatusBadRequest},
		{http.MethodPost, "/api/search/v1", map[string]string{"query": ""}, http.StatusBadRequest},
		{http.MethodPost, "/api/sessions/v1/not-a-uuid/close", nil, http.StatusBadRequest},
		{http.MethodPost, "/api/sessions/v1/5f1d7c1e-8a55-4f5b-9d0c-0b6c4b1e2a33/close", nil, http.StatusNotFound},
		{http.MethodGet, "/api/products/v1/99", nil, http.StatusNotFound},
		{http.MethodGet, "/api/products/v1/abc", nil, http.StatusBadRequest},
		{http.MethodGet, "/api/admin/v1/logs/missing", nil, http.StatusNotFound},
		{http.MethodPost, "/api/products/v1", map[string]interface{}{"name": "X", "description": "Y", "category": "Z", "rating": 7}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			status, res := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
			assert.False(t, res.Success)
		})
	}
}

func TestProductRoutes(t *testing.T) {
	app := newTestApp(t)

	status, res := do(t, app, http.MethodGet, "/api/products/v1/categories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"Audio", "Peripherals"}, res.Data)

	status, res = do(t, app, http.MethodPost, "/api/products/v1", map[string]interface{}{
		"name": "Desk Lamp", "description": "Warm LED", "category": "Home", "price": 20, "rating": 4,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 3, res.Data.(map[string]interface{})["id"])

	status, res = do(t, app, http.MethodGet, "/api/products/v1?category=Home", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, res.Data.(map[string]interface{})["products"], 1)

	status, _ = do(t, app, http.MethodDelete, "/api/products/v1/3", nil)
	assert.Equal(t, http.StatusOK, status)
}
