package service

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/repository/scylla"
	"storefront/internal/search"
	"storefront/internal/util"
)

// ProductService implements catalog operations and keeps the search
// index in step with the system of record.
type ProductService struct {
	products scylla.ProductRepository
	index    *search.ProductIndex
}

func NewProductService(products scylla.ProductRepository, index *search.ProductIndex) *ProductService {
	return &ProductService{
		products: products,
		index:    index,
	}
}

// AddProduct validates and stores a new product.
func (s *ProductService) AddProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	p.Name = util.SanitizeInput(p.Name)
	p.Description = util.SanitizeInput(p.Description)

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.index.Index(ctx, p)
	return p, nil
}

// UpdateProduct replaces the stored product fields, preserving rating
// aggregates and creation time.
func (s *ProductService) UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	if p.ProductID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	existing, err := s.products.GetProduct(ctx, p.ProductID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Name = util.SanitizeInput(p.Name)
	p.Description = util.SanitizeInput(p.Description)
	p.Rating = existing.Rating
	p.ReviewCount = existing.ReviewCount
	p.CreatedAt = existing.CreatedAt

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.index.Index(ctx, p)
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return s.products.ListProducts(ctx)
}

// SearchProducts resolves a text query through the search index and
// loads matching products from the catalog.
func (s *ProductService) SearchProducts(ctx context.Context, query, category string, limit int) ([]*model.Product, error) {
	if query == "" {
		return nil, ErrInvalidInput
	}

	ids, err := s.index.Search(ctx, query, category, limit)
	if err != nil {
		return nil, err
	}

	products := make([]*model.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.products.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				// Index lag after a delete, skip the stale hit
				continue
			}
			return nil, err
		}
		products = append(products, p)
	}

	return products, nil
}

func (s *ProductService) RemoveProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return ErrInvalidInput
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	s.index.Delete(ctx, productID)
	return nil
}

// SetStock overwrites the absolute stock level.
func (s *ProductService) SetStock(ctx context.Context, productID string, stock int) error {
	if productID == "" || stock < 0 {
		return ErrInvalidInput
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.products.SetStock(ctx, productID, stock); err != nil {
		return err
	}

	util.Info("Stock level set",
		zap.String("product_id", productID),
		zap.Int("stock", stock))

	return nil
}

// StockStatus reports the derived stock label for a product.
func (s *ProductService) StockStatus(ctx context.Context, productID string) (string, int, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return "", 0, err
	}
	return p.StockStatus(), p.Stock, nil
}

func validateProduct(p *model.Product) error {
	if p == nil || p.Name == "" || p.Category == "" {
		return ErrInvalidInput
	}
	if p.Price <= 0 {
		return ErrInvalidInput
	}
	if p.Stock < 0 {
		return ErrInvalidInput
	}
	return nil
}
