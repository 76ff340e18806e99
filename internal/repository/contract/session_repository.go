package contract

import (
	"context"
	"time"

	"swift-ai-market/internal/entity"

	"github.com/google/uuid"
)

// SessionRepository persists engagement sessions. Touch and End are
// conditional single writes; they report whether a row was changed so that
// concurrent callers agree on who performed the transition.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	// Touch sets last_activity_at = at where status is active and
	// last_activity_at <= at.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// End sets status = ended, ended_at = at where status is active.
	End(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// FindIdle lists active sessions with last_activity_at < cutoff, oldest
	// first. limit <= 0 means no limit.
	FindIdle(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Session, error)
	// CountActiveByProduct groups active sessions by product. An empty id
	// list counts every product.
	CountActiveByProduct(ctx context.Context, productIds []int64) ([]entity.ProductSessionCount, error)
	// CountByProductSince groups sessions of any status started at or after
	// since. A zero since counts all history.
	CountByProductSince(ctx context.Context, since time.Time) ([]entity.ProductSessionCount, error)
	CountActive(ctx context.Context) (int64, error)
	CountActiveUsers(ctx context.Context) (int64, error)
}
