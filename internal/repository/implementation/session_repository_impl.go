package implementation

import (
	"context"
	"errors"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/mapper"
	"swift-ai-market/internal/model"
	"swift-ai-market/internal/repository/contract"
	"swift-ai-market/internal/repository/scope"
	"swift-ai-market/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

var activeStatus = specification.SessionStatusIs{Status: string(entity.SessionStatusActive)}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return storeError(err)
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var m model.Session
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SessionRepositoryImpl) Touch(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := r.applySpecifications(
		r.db.WithContext(ctx).Model(&model.Session{}),
		specification.ByID{ID: id},
		activeStatus,
	)
	res := query.Where("last_activity_at <= ?", at).Update("last_activity_at", at)
	if res.Error != nil {
		return false, storeError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) End(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := r.applySpecifications(
		r.db.WithContext(ctx).Model(&model.Session{}),
		specification.ByID{ID: id},
		activeStatus,
	)
	res := query.Updates(map[string]interface{}{
		"status":   string(entity.SessionStatusEnded),
		"ended_at": at,
	})
	if res.Error != nil {
		return false, storeError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) FindIdle(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Session, error) {
	var models []*model.Session
	query := r.applySpecifications(
		r.db.WithContext(ctx),
		activeStatus,
		specification.LastActivityBefore{Cutoff: cutoff},
		specification.Pagination{Limit: limit},
	)
	if err := query.Scopes(scope.OrderByLastActivityAsc).Find(&models).Error; err != nil {
		return nil, storeError(err)
	}
	return r.mapper.ToEntities(models), nil
}

type productCountRow struct {
	ProductId int64
	Count     int64
}

func (r *SessionRepositoryImpl) countByProduct(ctx context.Context, specs ...specification.Specification) ([]entity.ProductSessionCount, error) {
	var rows []productCountRow
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), specs...)
	err := query.
		Select("product_id, COUNT(*) AS count").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError(err)
	}

	counts := make([]entity.ProductSessionCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, entity.ProductSessionCount{ProductId: row.ProductId, Count: row.Count})
	}
	return counts, nil
}

func (r *SessionRepositoryImpl) CountActiveByProduct(ctx context.Context, productIds []int64) ([]entity.ProductSessionCount, error) {
	specs := []specification.Specification{activeStatus}
	if len(productIds) > 0 {
		specs = append(specs, specification.SessionsForProducts{ProductIDs: productIds})
	}
	return r.countByProduct(ctx, specs...)
}

func (r *SessionRepositoryImpl) CountByProductSince(ctx context.Context, since time.Time) ([]entity.ProductSessionCount, error) {
	if since.IsZero() {
		return r.countByProduct(ctx)
	}
	return r.countByProduct(ctx, specification.StartedSince{Since: since})
}

func (r *SessionRepositoryImpl) CountActive(ctx context.Context) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), activeStatus)
	if err := query.Count(&count).Error; err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func (r *SessionRepositoryImpl) CountActiveUsers(ctx context.Context) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), activeStatus)
	if err := query.Distinct("user_identifier").Count(&count).Error; err != nil {
		return 0, storeError(err)
	}
	return count, nil
}
