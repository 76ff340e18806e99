package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const geminiEmbeddingModel = "text-embedding-004"

type GeminiProvider struct {
	client     *genai.Client
	model      string
	dimensions int
}

type GeminiOption func(*GeminiProvider, *genai.ClientConfig)

func WithGeminiModel(model string) GeminiOption {
	return func(p *GeminiProvider, _ *genai.ClientConfig) {
		if model != "" {
			p.model = model
		}
	}
}

// WithGeminiDimensions truncates output vectors. 0 keeps the model default.
func WithGeminiDimensions(n int) GeminiOption {
	return func(p *GeminiProvider, _ *genai.ClientConfig) { p.dimensions = n }
}

func WithGeminiBaseURL(url string) GeminiOption {
	return func(_ *GeminiProvider, cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = url }
}

func NewGeminiProvider(ctx context.Context, apiKey string, opts ...GeminiOption) (EmbeddingProvider, error) {
	p := &GeminiProvider{model: geminiEmbeddingModel}
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	for _, opt := range opts {
		opt(p, cc)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

// Generate passes taskType through as the Gemini task type, which already
// uses the RETRIEVAL_QUERY / RETRIEVAL_DOCUMENT names.
func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	config := &genai.EmbedContentConfig{TaskType: taskType}
	if p.dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(int32(p.dimensions))
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: resp.Embeddings[0].Values},
	}, nil
}
