package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/embedding"
	"swift-ai-market/pkg/vectorindex"
)

const module = "RETRIEVAL"

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(query []float32, k int, minSimilarity float64) ([]vectorindex.Result, error)
}

type Retriever struct {
	embedder  embedding.EmbeddingProvider
	index     Searcher
	assembler *Assembler
	timeout   time.Duration
	logger    logger.ILogger
}

func NewRetriever(
	embedder embedding.EmbeddingProvider,
	index Searcher,
	assembler *Assembler,
	timeout time.Duration,
	logger logger.ILogger,
) *Retriever {
	return &Retriever{
		embedder:  embedder,
		index:     index,
		assembler: assembler,
		timeout:   timeout,
		logger:    logger,
	}
}

// Search embeds query and returns the assembled view. An embedding failure is
// not an error for the caller: the view comes back empty with Degraded set.
// A dimension mismatch between the query vector and the index is returned.
func (r *Retriever) Search(ctx context.Context, query string) (View, error) {
	vector, err := r.Embed(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		r.logger.Warn(module, "Query embedding failed, returning empty view", map[string]interface{}{
			"error": err.Error(),
		})
		return View{
			Context:     []vectorindex.Result{},
			Suggestions: []vectorindex.Result{},
			Degraded:    true,
		}, nil
	}

	t := r.assembler.Thresholds()
	ranked, err := r.index.Search(vector, t.ContextLimit, t.Context)
	if err != nil {
		return View{}, fmt.Errorf("vector search: %w", err)
	}

	view := r.assembler.Assemble(ranked)
	r.logger.Debug(module, "Retrieval complete", map[string]interface{}{
		"context":     len(view.Context),
		"suggestions": len(view.Suggestions),
	})
	return view, nil
}

// Embed calls the provider under the configured timeout and wraps every
// failure in ErrEmbeddingFailed.
func (r *Retriever) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.embedder.Generate(ctx, text, taskType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", apperr.ErrEmbeddingFailed, r.timeout)
		}
		return nil, fmt.Errorf("%w: %w", apperr.ErrEmbeddingFailed, err)
	}
	if res == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: provider returned no values", apperr.ErrEmbeddingFailed)
	}
	return res.Embedding.Values, nil
}
