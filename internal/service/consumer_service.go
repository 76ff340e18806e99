package service

import (
	"context"
	"encoding/json"
	"fmt"

	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/metrics"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/embedding"
	"swift-ai-market/pkg/retry"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "EMBED_CONSUMER"

// Embedder turns text into a vector, applying the AI call timeout.
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float32, error)
}

// VectorWriter is the write side of the vector index.
type VectorWriter interface {
	Dimension() int
	Upsert(productId int64, vector []float32) error
	Remove(productId int64)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	embedder   Embedder
	index      VectorWriter
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embedder Embedder,
	index VectorWriter,
	metrics *metrics.Metrics,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		embedder:   embedder,
		index:      index,
		metrics:    metrics,
		logger:     logger,
	}
}

// Consume subscribes and processes embedding jobs until ctx is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg.Context(), msg)
		}
	}()

	return nil
}

// processMessage always acks. A product whose embedding could not be built
// stays unsearchable until it is re-embedded from the ops CLI.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishEmbedProductMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := EmbedProduct(ctx, cs.uowFactory, cs.embedder, cs.index, payload.ProductId); err != nil {
		cs.metrics.EmbeddingJob(false)
		cs.logger.Error(consumerModule, "Product embedding failed", map[string]interface{}{
			"product_id": payload.ProductId,
			"error":      err.Error(),
		})
		return
	}

	cs.metrics.EmbeddingJob(true)
	cs.logger.Info(consumerModule, "Product embedded", map[string]interface{}{"product_id": payload.ProductId})
}

// EmbedProduct embeds the product's search text, stores the vector and makes
// the product searchable. A vector whose length differs from the index
// dimension is rejected before it is persisted. A product deleted while its
// vector was being built never reaches the index.
func EmbedProduct(
	ctx context.Context,
	uowFactory unitofwork.RepositoryFactory,
	embedder Embedder,
	index VectorWriter,
	productId int64,
) error {
	repo := uowFactory.NewUnitOfWork(ctx).ProductRepository()

	product, err := retry.Once(ctx, retry.DefaultWait, func() (*entity.Product, error) {
		return repo.FindByID(ctx, productId)
	})
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: %d", apperr.ErrProductNotFound, productId)
	}

	vector, err := embedder.Embed(ctx, product.SearchText(), embedding.TaskRetrievalDocument)
	if err != nil {
		return err
	}
	if dim := index.Dimension(); dim != 0 && dim != len(vector) {
		return fmt.Errorf("%w: product %d has %d dimensions, index has %d",
			apperr.ErrDimensionMismatch, product.Id, len(vector), dim)
	}

	err = retry.Do(ctx, retry.DefaultWait, func() error {
		return repo.UpdateEmbedding(ctx, product.Id, vector)
	})
	if err != nil {
		return err
	}
	if err := index.Upsert(product.Id, vector); err != nil {
		return err
	}

	// A delete that landed after the update removed its index entry before
	// ours was written.
	exists, err := retry.Once(ctx, retry.DefaultWait, func() (bool, error) {
		return repo.Exists(ctx, product.Id)
	})
	if err != nil {
		return err
	}
	if !exists {
		index.Remove(product.Id)
		return fmt.Errorf("%w: %d", apperr.ErrProductNotFound, product.Id)
	}
	return nil
}
