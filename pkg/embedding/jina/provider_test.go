package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"swift-ai-market/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJinaProvider_Generate(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.6,0.8]}]}`))
	}))
	defer srv.Close()

	p := NewJinaProvider("secret", WithBaseURL(srv.URL), WithDimensions(256))
	res, err := p.Generate(context.Background(), "trail shoes", embedding.TaskRetrievalDocument)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.6, 0.8}, res.Embedding.Values)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "retrieval.passage", got.Task)
	assert.Equal(t, 256, got.Dimensions)
	assert.Equal(t, []string{"trail shoes"}, got.Input)
}

func TestJinaProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"detail":"invalid key"}`, want: "invalid key"},
		{name: "empty data", status: http.StatusOK, body: `{"data":[]}`, want: "empty embedding"},
		{name: "not json", status: http.StatusBadGateway, body: `<html>`, want: "status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewJinaProvider("k", WithBaseURL(srv.URL)).Generate(context.Background(), "x", embedding.TaskRetrievalQuery)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
