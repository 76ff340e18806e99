package service

import (
	"context"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/metrics"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/retry"
)

const indexModule = "INDEX"

type ReindexReport struct {
	Candidates int
	Embedded   int
	Failed     int
}

// IIndexService keeps the in-memory vector index in line with the catalog.
type IIndexService interface {
	// Warm loads every stored embedding into the index and returns how many
	// products became searchable.
	Warm(ctx context.Context) (int, error)
	// ReindexMissing embeds products stored without a vector.
	ReindexMissing(ctx context.Context) (*ReindexReport, error)
}

type indexService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   Embedder
	index      VectorWriter
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

func NewIndexService(
	uowFactory unitofwork.RepositoryFactory,
	embedder Embedder,
	index VectorWriter,
	metrics *metrics.Metrics,
	logger logger.ILogger,
) IIndexService {
	return &indexService{
		uowFactory: uowFactory,
		embedder:   embedder,
		index:      index,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *indexService) Warm(ctx context.Context) (int, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductRepository()

	products, err := retry.Once(ctx, retry.DefaultWait, func() ([]*entity.Product, error) {
		return repo.FindWithEmbedding(ctx)
	})
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, p := range products {
		if err := s.index.Upsert(p.Id, p.Embedding); err != nil {
			s.logger.Warn(indexModule, "Skipping stored embedding", map[string]interface{}{
				"product_id": p.Id,
				"error":      err.Error(),
			})
			continue
		}
		loaded++
	}

	s.logger.Info(indexModule, "Vector index warmed", map[string]interface{}{
		"loaded":    loaded,
		"stored":    len(products),
		"dimension": s.index.Dimension(),
	})
	return loaded, nil
}

func (s *indexService) ReindexMissing(ctx context.Context) (*ReindexReport, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductRepository()

	products, err := retry.Once(ctx, retry.DefaultWait, func() ([]*entity.Product, error) {
		return repo.FindWithoutEmbedding(ctx)
	})
	if err != nil {
		return nil, err
	}

	report := &ReindexReport{Candidates: len(products)}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := EmbedProduct(ctx, s.uowFactory, s.embedder, s.index, p.Id); err != nil {
			report.Failed++
			s.metrics.EmbeddingJob(false)
			s.logger.Warn(indexModule, "Re-embedding failed", map[string]interface{}{
				"product_id": p.Id,
				"error":      err.Error(),
			})
			continue
		}
		report.Embedded++
		s.metrics.EmbeddingJob(true)
	}

	s.logger.Info(indexModule, "Reindex finished", map[string]interface{}{
		"candidates": report.Candidates,
		"embedded":   report.Embedded,
		"failed":     report.Failed,
	})
	return report, nil
}
