package scylla

import (
	"context"

	"storefront/internal/model"
)

// UserRepository defines persistence operations for accounts, carts and
// wishlists.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetEmailVerified(ctx context.Context, userID string, verified bool) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
	CountUsers(ctx context.Context) (int64, error)

	GetCart(ctx context.Context, userID string) ([]model.CartItem, error)
	SetCartItem(ctx context.Context, userID, productID string, quantity int) error
	ClearCart(ctx context.Context, userID string) error

	GetWishlist(ctx context.Context, userID string) ([]string, error)
	AddWishlistItem(ctx context.Context, userID, productID string) error
	RemoveWishlistItem(ctx context.Context, userID, productID string) error
}

// ProductRepository defines persistence operations for the catalog.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	SetStock(ctx context.Context, productID string, stock int) error
	// DecrementStock atomically subtracts quantity from stock, failing
	// without mutation when the remaining stock is insufficient.
	DecrementStock(ctx context.Context, productID string, quantity int) error
	// IncrementStock adds quantity back, used to compensate a failed
	// multi-line decrement.
	IncrementStock(ctx context.Context, productID string, quantity int) error
	SetRating(ctx context.Context, productID string, rating float64, reviewCount int) error
	CountProducts(ctx context.Context) (int64, error)
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*model.OrderSummary, error)
	ListOrders(ctx context.Context) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	MarkPaid(ctx context.Context, orderID string) error
	CountOrders(ctx context.Context) (int64, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, r *model.Review) error
	GetReview(ctx context.Context, reviewID string) (*model.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]*model.Review, error)
	ListAll(ctx context.Context) ([]*model.Review, error)
	SetApproved(ctx context.Context, productID, reviewID string, approved bool) error
	DeleteReview(ctx context.Context, productID, reviewID string) error
}

// ContactRepository defines persistence operations for contact messages.
type ContactRepository interface {
	CreateMessage(ctx context.Context, m *model.ContactMessage) error
	GetMessage(ctx context.Context, messageID string) (*model.ContactMessage, error)
	ListMessages(ctx context.Context) ([]*model.ContactMessage, error)
	SetStatus(ctx context.Context, messageID, status string) error
	DeleteMessage(ctx context.Context, messageID string) error
	CountMessages(ctx context.Context) (int64, error)
}
