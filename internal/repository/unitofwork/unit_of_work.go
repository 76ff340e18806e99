package unitofwork

import (
	"context"

	"swift-ai-market/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductRepository() contract.ProductRepository
	SessionRepository() contract.SessionRepository
}
