package factory

import (
	"context"
	"fmt"

	"swift-ai-market/pkg/embedding"
	"swift-ai-market/pkg/embedding/jina"
	"swift-ai-market/pkg/llm"
	"swift-ai-market/pkg/llm/gemini"
	"swift-ai-market/pkg/llm/ollama"
	"swift-ai-market/pkg/llm/openai"
)

type Settings struct {
	Provider       string
	Model          string
	OllamaBaseURL  string
	OpenAIKey      string
	OpenAIBaseURL  string
	HuggingFaceKey string
	GeminiKey      string
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama":
		return ollama.NewOllamaProvider(s.OllamaBaseURL, s.Model), nil
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return openai.NewProvider(s.OpenAIKey, s.OpenAIBaseURL, s.Model), nil
	case "huggingface":
		if s.HuggingFaceKey == "" {
			return nil, fmt.Errorf("huggingface provider requires HUGGINGFACE_API_KEY")
		}
		return openai.NewProvider(s.HuggingFaceKey, openai.HuggingFaceRouterURL, s.Model), nil
	case "gemini":
		if s.GeminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		p, err := gemini.NewProvider(context.Background(), s.GeminiKey, s.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

type EmbeddingSettings struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	OpenAIKey     string
	GeminiKey     string
	JinaKey       string
	// Dimensions requests truncated vectors from providers that support it.
	Dimensions int
}

func NewEmbeddingProvider(s EmbeddingSettings) (embedding.EmbeddingProvider, error) {
	switch s.Provider {
	case "ollama":
		return embedding.NewOllamaProvider(s.OllamaBaseURL, s.Model), nil
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai embeddings require OPENAI_API_KEY")
		}
		return embedding.NewOpenAIProvider(s.OpenAIKey, s.Model), nil
	case "gemini":
		if s.GeminiKey == "" {
			return nil, fmt.Errorf("gemini embeddings require GOOGLE_GEMINI_API_KEY")
		}
		return embedding.NewGeminiProvider(context.Background(), s.GeminiKey,
			embedding.WithGeminiModel(s.Model), embedding.WithGeminiDimensions(s.Dimensions))
	case "jina":
		if s.JinaKey == "" {
			return nil, fmt.Errorf("jina embeddings require JINA_API_KEY")
		}
		return jina.NewJinaProvider(s.JinaKey, jina.WithModel(s.Model), jina.WithDimensions(s.Dimensions)), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", s.Provider)
	}
}
