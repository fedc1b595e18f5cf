package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/util"
)

// ErrInsufficientStock is returned by DecrementStock when the remaining
// stock cannot cover the requested quantity. No mutation happens in that
// case.
var ErrInsufficientStock = errors.New("insufficient stock")

const casRetries = 5

type productRepository struct {
	client *ScyllaClient
}

func NewProductRepository(client *ScyllaClient, logger *zap.Logger) ProductRepository {
	return &productRepository{client: client}
}

func (r *productRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ProductID == "" {
		p.ProductID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := r.insert(ctx, p); err != nil {
		util.Error("Failed to create product",
			zap.String("product_id", p.ProductID),
			zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}

	util.Info("Product created",
		zap.String("product_id", p.ProductID),
		zap.String("name", p.Name))

	return nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()

	if err := r.insert(ctx, p); err != nil {
		util.Error("Failed to update product",
			zap.String("product_id", p.ProductID),
			zap.Error(err))
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

func (r *productRepository) insert(ctx context.Context, p *model.Product) error {
	return r.client.Prepared.CreateProduct.Bind(
		p.ProductID, p.Name, p.Description, p.Price, p.Images, p.Category,
		p.SubCategory, p.Sizes, p.Bestseller, p.Stock, p.Rating, p.ReviewCount,
		p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r *productRepository) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	p := &model.Product{}

	query := r.client.Prepared.GetProduct.Bind(productID).WithContext(ctx)
	err := r.client.ScanWithRetry(query,
		&p.ProductID, &p.Name, &p.Description, &p.Price, &p.Images, &p.Category,
		&p.SubCategory, &p.Sizes, &p.Bestseller, &p.Stock, &p.Rating, &p.ReviewCount,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		util.Error("Failed to get product",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*model.Product, error) {
	iter := r.client.Session.Query(`
		SELECT product_id, name, description, price, images, category,
			sub_category, sizes, bestseller, stock, rating, review_count,
			created_at, updated_at
		FROM products`).WithContext(ctx).Iter()

	var products []*model.Product
	for {
		p := &model.Product{}
		if !iter.Scan(&p.ProductID, &p.Name, &p.Description, &p.Price, &p.Images,
			&p.Category, &p.SubCategory, &p.Sizes, &p.Bestseller, &p.Stock,
			&p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt) {
			break
		}
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, productID string) error {
	if err := r.client.Prepared.DeleteProduct.Bind(productID).WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to delete product",
			zap.String("product_id", productID),
			zap.Error(err))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	util.Info("Product deleted", zap.String("product_id", productID))
	return nil
}

func (r *productRepository) SetStock(ctx context.Context, productID string, stock int) error {
	now := time.Now().UTC()
	if err := r.client.Prepared.SetStock.Bind(stock, now, productID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	return nil
}

// DecrementStock subtracts quantity from the product's stock using a
// lightweight-transaction compare-and-set loop. Lost races against
// concurrent purchases are retried with the freshly observed stock.
func (r *productRepository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid decrement quantity %d", quantity)
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		readQuery := r.client.Session.Query(
			`SELECT stock FROM products WHERE product_id = ?`, productID).WithContext(ctx)
		if err := readQuery.Scan(&current); err != nil {
			if err == gocql.ErrNotFound {
				return gocql.ErrNotFound
			}
			return fmt.Errorf("failed to read stock: %w", err)
		}

		if current < quantity {
			return ErrInsufficientStock
		}

		var observed int
		applied, err := r.client.Prepared.CasStock.
			Bind(current-quantity, productID, current).
			WithContext(ctx).
			ScanCAS(&observed)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if applied {
			util.Debug("Stock decremented",
				zap.String("product_id", productID),
				zap.Int("quantity", quantity),
				zap.Int("remaining", current-quantity))
			return nil
		}
		// Another writer got there first, retry with the observed value.
	}

	util.Warn("Stock decrement exhausted retries",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return fmt.Errorf("stock decrement contention on product %s", productID)
}

func (r *productRepository) IncrementStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid increment quantity %d", quantity)
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		readQuery := r.client.Session.Query(
			`SELECT stock FROM products WHERE product_id = ?`, productID).WithContext(ctx)
		if err := readQuery.Scan(&current); err != nil {
			if err == gocql.ErrNotFound {
				return gocql.ErrNotFound
			}
			return fmt.Errorf("failed to read stock: %w", err)
		}

		var observed int
		applied, err := r.client.Prepared.CasStock.
			Bind(current+quantity, productID, current).
			WithContext(ctx).
			ScanCAS(&observed)
		if err != nil {
			return fmt.Errorf("failed to increment stock: %w", err)
		}
		if applied {
			return nil
		}
	}

	return fmt.Errorf("stock increment contention on product %s", productID)
}

func (r *productRepository) SetRating(ctx context.Context, productID string, rating float64, reviewCount int) error {
	now := time.Now().UTC()
	if err := r.client.Prepared.SetRating.Bind(rating, reviewCount, now, productID).WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to set product rating",
			zap.String("product_id", productID),
			zap.Error(err))
		return fmt.Errorf("failed to set product rating: %w", err)
	}
	return nil
}

func (r *productRepository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	query := r.client.Session.Query(`SELECT COUNT(*) FROM products`).WithContext(ctx)
	if err := query.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
