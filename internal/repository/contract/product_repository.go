package contract

import (
	"context"

	"swift-ai-market/internal/entity"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// UpdateEmbedding fails with apperr.ErrProductNotFound when no row matches.
	UpdateEmbedding(ctx context.Context, id int64, vector []float32) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error)
	// FindAll orders by rating desc, then id asc.
	FindAll(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	FindWithEmbedding(ctx context.Context) ([]*entity.Product, error)
	FindWithoutEmbedding(ctx context.Context) ([]*entity.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}
