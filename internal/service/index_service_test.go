package service

import (
	"context"
	"testing"

	"swift-ai-market/internal/entity"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexService_Warm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.products.Create(ctx, &entity.Product{Id: 10, Name: "Odd", Embedding: []float32{1, 2, 3}}))

	fresh := vectorindex.New()
	svc := NewIndexService(f.uow, f.retriever, fresh, nil, logger.NewNopLogger())

	loaded, err := svc.Warm(ctx)
	require.NoError(t, err)
	// Catalog vectors load first (rating order) and fix the dimension.
	assert.Equal(t, 3, loaded)
	assert.Equal(t, 3, fresh.Len())
	assert.Equal(t, 2, fresh.Dimension())
}

func TestIndexService_ReindexMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.products.Create(ctx, &entity.Product{Id: 20, Name: "Desk Lamp", Description: "Warm LED lamp"}))
	require.NoError(t, f.products.Create(ctx, &entity.Product{Id: 21, Name: "Mystery", Description: "box"}))
	f.embedder.vectors["Desk Lamp Warm LED lamp"] = []float32{0.8, 0.6}

	svc := NewIndexService(f.uow, f.retriever, f.index, nil, logger.NewNopLogger())
	report, err := svc.ReindexMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ReindexReport{Candidates: 2, Embedded: 1, Failed: 1}, report)
	assert.Equal(t, 4, f.index.Len())

	lamp, err := f.products.FindByID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.8, 0.6}, lamp.Embedding)
}
