package model

import "time"

// Stock status labels derived from the numeric stock count.
const (
	StockStatusIn  = "In Stock"
	StockStatusLow = "Low Stock"
	StockStatusOut = "Out of Stock"

	// LowStockThreshold is the count at or below which a product is
	// reported as Low Stock.
	LowStockThreshold = 5
)

// Product is a catalog entry. Rating and ReviewCount are denormalized from
// approved reviews and recomputed on every review mutation.
type Product struct {
	ProductID   string    `json:"product_id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Images      []string  `json:"images" db:"images"`
	Category    string    `json:"category" db:"category"`
	SubCategory string    `json:"sub_category" db:"sub_category"`
	Sizes       []string  `json:"sizes" db:"sizes"`
	Bestseller  bool      `json:"bestseller" db:"bestseller"`
	Stock       int       `json:"stock" db:"stock"`
	Rating      float64   `json:"rating" db:"rating"`
	ReviewCount int       `json:"review_count" db:"review_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// StockStatus returns the derived availability label.
func (p *Product) StockStatus() string {
	switch {
	case p.Stock <= 0:
		return StockStatusOut
	case p.Stock <= LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}
