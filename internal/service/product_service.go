package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/events"
	"swift-ai-market/pkg/retry"
)

const productModule = "PRODUCT"

// EventBus publishes domain events to other instances and consumers.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
}

type IProductService interface {
	List(ctx context.Context, req *dto.ListProductsRequest) (*dto.ListProductsResponse, error)
	Show(ctx context.Context, id int64) (*dto.ProductResponse, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, req *dto.CreateProductRequest) (*dto.CreateProductResponse, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	index            VectorWriter
	bus              EventBus
	logger           logger.ILogger
}

// NewProductService wires the catalog service. bus may be nil.
func NewProductService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	index VectorWriter,
	bus EventBus,
	logger logger.ILogger,
) IProductService {
	return &productService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		index:            index,
		bus:              bus,
		logger:           logger,
	}
}

func (c *productService) List(ctx context.Context, req *dto.ListProductsRequest) (*dto.ListProductsResponse, error) {
	repo := c.uowFactory.NewUnitOfWork(ctx).ProductRepository()

	filter := entity.ProductFilter{
		Category: strings.TrimSpace(req.Category),
		Query:    strings.TrimSpace(req.Query),
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	products, err := retry.Once(ctx, retry.DefaultWait, func() ([]*entity.Product, error) {
		return repo.FindAll(ctx, filter)
	})
	if err != nil {
		return nil, err
	}

	total, err := retry.Once(ctx, retry.DefaultWait, func() (int64, error) {
		return repo.Count(ctx)
	})
	if err != nil {
		return nil, err
	}

	res := &dto.ListProductsResponse{
		Products: make([]*dto.ProductResponse, 0, len(products)),
		Total:    total,
	}
	for _, p := range products {
		res.Products = append(res.Products, toProductResponse(p))
	}
	return res, nil
}

func (c *productService) Show(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	repo := c.uowFactory.NewUnitOfWork(ctx).ProductRepository()

	product, err := retry.Once(ctx, retry.DefaultWait, func() (*entity.Product, error) {
		return repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", apperr.ErrProductNotFound, id)
	}
	return toProductResponse(product), nil
}

func (c *productService) Categories(ctx context.Context) ([]string, error) {
	repo := c.uowFactory.NewUnitOfWork(ctx).ProductRepository()
	return retry.Once(ctx, retry.DefaultWait, func() ([]string, error) {
		return repo.Categories(ctx)
	})
}

// Create stores the product and queues its embedding. The product is created
// even when the job cannot be queued; it is simply not searchable yet.
func (c *productService) Create(ctx context.Context, req *dto.CreateProductRequest) (*dto.CreateProductResponse, error) {
	product := &entity.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		Rating:      req.Rating,
		ReviewCount: req.ReviewCount,
		Image:       req.Image,
		CreatedAt:   time.Now(),
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: begin: %w", apperr.ErrStoreUnavailable, err)
	}
	defer uow.Rollback()

	if err := uow.ProductRepository().Create(ctx, product); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	res := &dto.CreateProductResponse{Id: product.Id, EmbeddingQueued: true}
	err := c.publisherService.SendMessage(ctx, dto.PublishEmbedProductMessage{ProductId: product.Id})
	if err != nil {
		res.EmbeddingQueued = false
		c.logger.Warn(productModule, "Failed to queue product embedding", map[string]interface{}{
			"product_id": product.Id,
			"error":      err.Error(),
		})
	}

	c.logger.Info(productModule, "Product created", map[string]interface{}{
		"product_id": product.Id,
		"category":   product.Category,
	})
	c.publish(ctx, events.TypeProductCreated, map[string]interface{}{
		"product_id": product.Id,
		"name":       product.Name,
		"category":   product.Category,
	})
	return res, nil
}

// Delete removes the product and takes it out of search. Sessions that
// reference it are kept.
func (c *productService) Delete(ctx context.Context, id int64) error {
	repo := c.uowFactory.NewUnitOfWork(ctx).ProductRepository()

	exists, err := retry.Once(ctx, retry.DefaultWait, func() (bool, error) {
		return repo.Exists(ctx, id)
	})
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", apperr.ErrProductNotFound, id)
	}

	err = retry.Do(ctx, retry.DefaultWait, func() error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	c.index.Remove(id)

	c.logger.Info(productModule, "Product deleted", map[string]interface{}{"product_id": id})
	c.publish(ctx, events.TypeProductDeleted, map[string]interface{}{"product_id": id})
	return nil
}

func (c *productService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.bus == nil {
		return
	}
	event := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn(productModule, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
