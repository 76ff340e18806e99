package implementation

import (
	"context"
	"errors"
	"fmt"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/mapper"
	"swift-ai-market/internal/model"
	"swift-ai-market/internal/repository/contract"
	"swift-ai-market/internal/repository/scope"
	"swift-ai-market/internal/repository/specification"
	"swift-ai-market/pkg/apperr"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ProductRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProductMapper
}

func NewProductRepository(db *gorm.DB) contract.ProductRepository {
	return &ProductRepositoryImpl{
		db:     db,
		mapper: mapper.NewProductMapper(),
	}
}

func (r *ProductRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProductRepositoryImpl) findMany(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	var models []*model.Product
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Scopes(scope.OrderByRatingDesc).Find(&models).Error; err != nil {
		return nil, storeError(err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProductRepositoryImpl) Create(ctx context.Context, product *entity.Product) error {
	m := r.mapper.ToModel(product)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return storeError(err)
	}
	*product = *r.mapper.ToEntity(m)
	return nil
}

func (r *ProductRepositoryImpl) UpdateEmbedding(ctx context.Context, id int64, vector []float32) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("embedding", pgvector.NewVector(vector))
	if res.Error != nil {
		return storeError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", apperr.ErrProductNotFound, id)
	}
	return nil
}

func (r *ProductRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return storeError(r.db.WithContext(ctx).Delete(&model.Product{}, id).Error)
}

func (r *ProductRepositoryImpl) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	var m model.Product
	if err := r.db.WithContext(ctx).Scopes(specification.ByProductID{ID: id}.Apply).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ProductRepositoryImpl) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return []*entity.Product{}, nil
	}
	return r.findMany(ctx, specification.ByProductIDs{IDs: ids})
}

func (r *ProductRepositoryImpl) FindAll(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	specs := []specification.Specification{}
	if filter.Category != "" {
		specs = append(specs, specification.ByCategory{Category: filter.Category})
	}
	if filter.Query != "" {
		specs = append(specs, specification.NameOrDescriptionContains{Query: filter.Query})
	}
	specs = append(specs, specification.Pagination{Limit: filter.Limit, Offset: filter.Offset})
	return r.findMany(ctx, specs...)
}

func (r *ProductRepositoryImpl) FindWithEmbedding(ctx context.Context) ([]*entity.Product, error) {
	return r.findMany(ctx, specification.HasEmbedding{Present: true})
}

func (r *ProductRepositoryImpl) FindWithoutEmbedding(ctx context.Context) ([]*entity.Product, error) {
	return r.findMany(ctx, specification.HasEmbedding{Present: false})
}

func (r *ProductRepositoryImpl) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, storeError(err)
	}
	return categories, nil
}

func (r *ProductRepositoryImpl) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, storeError(err)
	}
	return count > 0, nil
}

func (r *ProductRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error; err != nil {
		return 0, storeError(err)
	}
	return count, nil
}
