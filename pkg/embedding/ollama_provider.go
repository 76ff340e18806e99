package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viterin/vek/vek32"
)

// OllamaProvider embeds with a local Ollama model through /api/embed.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaProvider(baseURL string, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// withTaskPrefix applies the nomic-embed instruction prefixes. Other models
// get the text unchanged.
func (p *OllamaProvider) withTaskPrefix(text, taskType string) string {
	if !strings.HasPrefix(p.Model, "nomic-embed") {
		return text
	}
	switch taskType {
	case TaskRetrievalQuery:
		return "search_query: " + text
	case TaskRetrievalDocument:
		return "search_document: " + text
	default:
		return text
	}
}

func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	body, err := json.Marshal(ollamaEmbedRequest{
		Model: p.Model,
		Input: p.withTaskPrefix(text, taskType),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out ollamaEmbedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ollama embedding error (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return nil, fmt.Errorf("ollama embedding error (status %d): %s", resp.StatusCode, out.Error)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding from ollama")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: NormalizeVector(out.Embeddings[0])},
	}, nil
}

// NormalizeVector returns vec scaled to unit length. Zero vectors are returned
// as is.
func NormalizeVector(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	magnitude := vek32.Norm(vec)
	if magnitude == 0 {
		return vec
	}
	return vek32.DivNumber(vec, magnitude)
}
