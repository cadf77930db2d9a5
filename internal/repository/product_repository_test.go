package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_AdjustStock(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewProductRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Product{
		Name:    "Widget",
		Price:   100,
		InStock: 10,
	})
	require.NoError(t, err)

	require.NoError(t, repo.AdjustStock(ctx, created.ID, -3))
	require.NoError(t, repo.AdjustStock(ctx, created.ID, 1))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.InStock)

	err = repo.AdjustStock(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_GetActiveByIDs(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewProductRepository(db)
	ctx := context.Background()

	a, err := repo.Create(ctx, &model.Product{Name: "A", Price: 10, InStock: 5})
	require.NoError(t, err)
	b, err := repo.Create(ctx, &model.Product{Name: "B", Price: 20, InStock: 5})
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, b.ID))

	products, err := repo.GetActiveByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, a.ID, products[0].ID)

	products, err = repo.GetActiveByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, products)
}

func TestProductRepository_ListByShop(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewProductRepository(db)
	ctx := context.Background()

	shopID := uuid.New()
	_, err := repo.Create(ctx, &model.Product{Name: "Here", Price: 10, ShopID: &shopID})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Product{Name: "Elsewhere", Price: 10})
	require.NoError(t, err)

	products, total, err := repo.List(ctx, model.ProductFilter{ShopID: &shopID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Here", products[0].Name)
}
