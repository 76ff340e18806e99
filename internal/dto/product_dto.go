package dto

import (
	"time"
)

type ProductResponse struct {
	Id           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Price        float64    `json:"price"`
	Rating       float64    `json:"rating"`
	ReviewCount  int        `json:"review_count"`
	Image        string     `json:"image"`
	HasEmbedding bool       `json:"has_embedding"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type ListProductsRequest struct {
	Category string `query:"category"`
	Query    string `query:"q" validate:"max=200"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

type ListProductsResponse struct {
	Products []*ProductResponse `json:"products"`
	Total    int64              `json:"total"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"required,max=100"`
	Price       float64 `json:"price" validate:"gte=0"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int     `json:"review_count" validate:"gte=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
}

type CreateProductResponse struct {
	Id int64 `json:"id"`
	// EmbeddingQueued is false when the job could not be queued; the product
	// is stored either way and can be re-embedded later.
	EmbeddingQueued bool `json:"embedding_queued"`
}

// PublishEmbedProductMessage is the payload of the async embedding job.
type PublishEmbedProductMessage struct {
	ProductId int64 `json:"product_id"`
}
