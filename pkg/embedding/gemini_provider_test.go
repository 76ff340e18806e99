package embedding

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_Generate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.6,0.8]},"embeddings":[{"values":[0.6,0.8]}]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "g-key",
		WithGeminiBaseURL(srv.URL), WithGeminiDimensions(256))
	require.NoError(t, err)

	res, err := p.Generate(context.Background(), "trail shoes", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, res.Embedding.Values)
	assert.Contains(t, body, "trail shoes")
	assert.Contains(t, body, TaskRetrievalDocument)
}

func TestGeminiProvider_EmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "g-key", WithGeminiBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "x", TaskRetrievalQuery)
	assert.Error(t, err)
}
