package service

import (
	"swift-ai-market/internal/dto"
	"swift-ai-market/internal/entity"
)

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		Id:           p.Id,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Price:        p.Price,
		Rating:       p.Rating,
		ReviewCount:  p.ReviewCount,
		Image:        p.Image,
		HasEmbedding: len(p.Embedding) > 0,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toSessionResponse(s *entity.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:             s.Id,
		ProductId:      s.ProductId,
		UserIdentifier: s.UserIdentifier,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt,
		LastActivityAt: s.LastActivityAt,
		EndedAt:        s.EndedAt,
	}
}

func productsById(products []*entity.Product) map[int64]*entity.Product {
	out := make(map[int64]*entity.Product, len(products))
	for _, p := range products {
		out[p.Id] = p
	}
	return out
}
