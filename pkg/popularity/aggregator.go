// Package popularity derives engagement rankings from session history.
package popularity

import (
	"context"
	"sort"
	"time"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
)

const module = "POPULARITY"

// DefaultWindow bounds PopularProducts to recent history.
const DefaultWindow = 30 * 24 * time.Hour

type PopularProduct struct {
	Product      *entity.Product
	SessionCount int64
}

type Aggregator struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	window     time.Duration
	clock      func() time.Time
}

type Option func(*Aggregator)

// WithWindow sets the retention window. 0 counts all history.
func WithWindow(d time.Duration) Option {
	return func(a *Aggregator) { a.window = d }
}

func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) { a.clock = clock }
}

func NewAggregator(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger, opts ...Option) *Aggregator {
	a := &Aggregator{
		uowFactory: uowFactory,
		logger:     logger,
		window:     DefaultWindow,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ActiveSessionCounts returns the number of active sessions per product.
// Products without active sessions appear (with 0) only when asked for
// explicitly through productIds.
func (a *Aggregator) ActiveSessionCounts(ctx context.Context, productIds ...int64) (map[int64]int64, error) {
	rows, err := a.uowFactory.NewUnitOfWork(ctx).SessionRepository().CountActiveByProduct(ctx, productIds)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, max(len(rows), len(productIds)))
	for _, id := range productIds {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.ProductId] = row.Count
	}
	return counts, nil
}

// PopularProducts ranks products by sessions started within the window, in
// any status. Ties go to the higher rating, then more reviews, then the lower
// id. Sessions whose product no longer exists are ignored.
func (a *Aggregator) PopularProducts(ctx context.Context, limit int) ([]PopularProduct, error) {
	if limit <= 0 {
		return []PopularProduct{}, nil
	}

	var since time.Time
	if a.window > 0 {
		since = a.clock().Add(-a.window)
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.SessionRepository().CountByProductSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []PopularProduct{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductId)
	}
	products, err := uow.ProductRepository().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[int64]*entity.Product, len(products))
	for _, p := range products {
		byId[p.Id] = p
	}

	ranked := make([]PopularProduct, 0, len(rows))
	stale := 0
	for _, row := range rows {
		p, ok := byId[row.ProductId]
		if !ok {
			stale++
			continue
		}
		ranked = append(ranked, PopularProduct{Product: p, SessionCount: row.Count})
	}
	if stale > 0 {
		a.logger.Debug(module, "Skipped sessions of deleted products", map[string]interface{}{
			"products": stale,
		})
	}

	Sort(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Sort orders by session count desc, rating desc, review count desc, id asc.
func Sort(ranked []PopularProduct) {
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.SessionCount != b.SessionCount {
			return a.SessionCount > b.SessionCount
		}
		if a.Product.Rating != b.Product.Rating {
			return a.Product.Rating > b.Product.Rating
		}
		if a.Product.ReviewCount != b.Product.ReviewCount {
			return a.Product.ReviewCount > b.Product.ReviewCount
		}
		return a.Product.Id < b.Product.Id
	})
}

// ActiveUsers counts distinct user identifiers holding an active session.
func (a *Aggregator) ActiveUsers(ctx context.Context) (int64, error) {
	return a.uowFactory.NewUnitOfWork(ctx).SessionRepository().CountActiveUsers(ctx)
}

// ActiveSessions counts active sessions across all products.
func (a *Aggregator) ActiveSessions(ctx context.Context) (int64, error) {
	return a.uowFactory.NewUnitOfWork(ctx).SessionRepository().CountActive(ctx)
}
