package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"swift-ai-market/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	path   string
	apiKey string
	body   map[string]interface{}
}

func newGeminiServer(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.apiKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestProvider_Chat(t *testing.T) {
	srv, got := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Try the headphones."}]}}]}`)

	p, err := NewProvider(context.Background(), "g-key", "", WithBaseURL(srv.URL))
	require.NoError(t, err)

	answer, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a shopping assistant."},
		{Role: llm.RoleUser, Content: "Something for flights?"},
		{Role: llm.RoleAssistant, Content: "Noise cancelling helps."},
		{Role: llm.RoleUser, Content: "Which one?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Try the headphones.", answer)

	assert.True(t, strings.HasSuffix(got.path, "models/"+DefaultModel+":generateContent"), got.path)
	assert.Equal(t, "g-key", got.apiKey)

	contents, ok := got.body["contents"].([]interface{})
	require.True(t, ok)
	require.Len(t, contents, 3)
	roles := make([]string, 0, len(contents))
	for _, c := range contents {
		roles = append(roles, c.(map[string]interface{})["role"].(string))
	}
	assert.Equal(t, []string{"user", "model", "user"}, roles)

	raw, err := json.Marshal(got.body["systemInstruction"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "You are a shopping assistant.")
}

func TestProvider_ChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{name: "api error", status: http.StatusBadRequest, reply: `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`},
		{name: "no candidates", status: http.StatusOK, reply: `{"candidates":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGeminiServer(t, tt.status, tt.reply)
			p, err := NewProvider(context.Background(), "g-key", "gemini-2.0-flash-lite", WithBaseURL(srv.URL))
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), "hello")
			assert.Error(t, err)
		})
	}
}
