package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func newProductService() (*ProductService, *fakeProductRepo) {
	products := newFakeProductRepo()
	return NewProductService(products, nil), products
}

func validProduct() *model.Product {
	return &model.Product{
		Name:     "Ceramic Mug",
		Category: "Kitchen",
		Price:    1200,
		Stock:    10,
	}
}

func TestAddProduct(t *testing.T) {
	svc, _ := newProductService()
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, validProduct())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ProductID)

	got, err := svc.GetProduct(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug", got.Name)
}

func TestAddProductValidation(t *testing.T) {
	svc, _ := newProductService()
	ctx := context.Background()

	noName := validProduct()
	noName.Name = ""
	_, err := svc.AddProduct(ctx, noName)
	assert.ErrorIs(t, err, ErrInvalidInput)

	freebie := validProduct()
	freebie.Price = 0
	_, err = svc.AddProduct(ctx, freebie)
	assert.ErrorIs(t, err, ErrInvalidInput)

	negative := validProduct()
	negative.Stock = -1
	_, err = svc.AddProduct(ctx, negative)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProductPreservesAggregates(t *testing.T) {
	svc, products := newProductService()
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, validProduct())
	require.NoError(t, err)
	require.NoError(t, products.SetRating(ctx, p.ProductID, 4.5, 12))

	updated := validProduct()
	updated.ProductID = p.ProductID
	updated.Name = "Ceramic Mug v2"
	updated.Rating = 1
	updated.ReviewCount = 999

	got, err := svc.UpdateProduct(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug v2", got.Name)
	assert.InDelta(t, 4.5, got.Rating, 0.001)
	assert.Equal(t, 12, got.ReviewCount)

	missing := validProduct()
	missing.ProductID = "ghost"
	_, err = svc.UpdateProduct(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveProduct(t *testing.T) {
	svc, _ := newProductService()
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, validProduct())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveProduct(ctx, p.ProductID))
	_, err = svc.GetProduct(ctx, p.ProductID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.RemoveProduct(ctx, p.ProductID), ErrNotFound)
}

func TestSetStockAndStatus(t *testing.T) {
	svc, _ := newProductService()
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, validProduct())
	require.NoError(t, err)

	require.NoError(t, svc.SetStock(ctx, p.ProductID, 3))
	status, stock, err := svc.StockStatus(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, model.StockStatusLow, status)
	assert.Equal(t, 3, stock)

	require.NoError(t, svc.SetStock(ctx, p.ProductID, 0))
	status, _, err = svc.StockStatus(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, model.StockStatusOut, status)

	assert.ErrorIs(t, svc.SetStock(ctx, p.ProductID, -5), ErrInvalidInput)
	assert.ErrorIs(t, svc.SetStock(ctx, "ghost", 4), ErrNotFound)
}
