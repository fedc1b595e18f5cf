package model

import "time"

// Order lifecycle statuses.
const (
	StatusOrderPlaced    = "Order Placed"
	StatusPacking        = "Packing"
	StatusShipped        = "Shipped"
	StatusOutForDelivery = "Out for Delivery"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD     = "cod"
	PaymentMethodPayHere = "payhere"
)

// IsValidOrderStatus reports whether s is a known lifecycle status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case StatusOrderPlaced, StatusPacking, StatusShipped,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentMethod reports whether m is an accepted payment method.
func IsValidPaymentMethod(m string) bool {
	return m == PaymentMethodCOD || m == PaymentMethodPayHere
}

// OrderItem is a resolved order line: product attributes are copied at
// order time so later catalog edits do not rewrite order history.
type OrderItem struct {
	ProductID string  `json:"product_id" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	Price     float64 `json:"price" db:"price"`
	Size      string  `json:"size" db:"size"`
	Quantity  int     `json:"quantity" db:"quantity"`
}

// DeliveryInfo is the shipping destination captured at checkout.
type DeliveryInfo struct {
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Email      string `json:"email" db:"email"`
	Phone      string `json:"phone" db:"phone"`
	Address    string `json:"address" db:"address"`
	City       string `json:"city" db:"city"`
	District   string `json:"district" db:"district"`
	PostalCode string `json:"postal_code" db:"postal_code"`
}

// OrderSummary is the compact row stored in the per-user order listing.
type OrderSummary struct {
	OrderID   string    `json:"order_id" db:"order_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Amount    float64   `json:"amount" db:"amount"`
	Status    string    `json:"status" db:"status"`
	Paid      bool      `json:"paid" db:"paid"`
}

// Order is a placed order.
type Order struct {
	OrderBucket   int          `json:"-" db:"order_bucket"`
	OrderID       string       `json:"order_id" db:"order_id"`
	UserID        string       `json:"user_id" db:"user_id"`
	Items         []OrderItem  `json:"items" db:"items"`
	Amount        float64      `json:"amount" db:"amount"`
	DeliveryFee   float64      `json:"delivery_fee" db:"delivery_fee"`
	DeliveryInfo  DeliveryInfo `json:"delivery_info" db:"delivery_info"`
	ServiceType   string       `json:"service_type" db:"service_type"`
	PaymentMethod string       `json:"payment_method" db:"payment_method"`
	Paid          bool         `json:"paid" db:"paid"`
	Status        string       `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}
