package memory

import (
	"context"

	"swift-ai-market/internal/repository/contract"
	"swift-ai-market/internal/repository/unitofwork"
)

// RepositoryFactory hands out units of work over shared in-memory
// repositories. Transactions are no-ops: each repository call is atomic on
// its own, which is all the memory store promises.
type RepositoryFactory struct {
	products contract.ProductRepository
	sessions contract.SessionRepository
}

func NewRepositoryFactory(products contract.ProductRepository, sessions contract.SessionRepository) unitofwork.RepositoryFactory {
	return &RepositoryFactory{products: products, sessions: sessions}
}

// NewStore is the factory used when no database is configured.
func NewStore() unitofwork.RepositoryFactory {
	return NewRepositoryFactory(NewProductRepository(), NewSessionRepository())
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{products: f.products, sessions: f.sessions}
}

type unitOfWork struct {
	products contract.ProductRepository
	sessions contract.SessionRepository
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) ProductRepository() contract.ProductRepository { return u.products }
func (u *unitOfWork) SessionRepository() contract.SessionRepository { return u.sessions }
