package model

import "time"

// User is a storefront account. Passwords are stored as encoded argon2id
// hashes, never in clear.
type User struct {
	UserBucket      int       `json:"-" db:"user_bucket"`
	UserID          string    `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Email           string    `json:"email" db:"email"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	IsEmailVerified bool      `json:"is_email_verified" db:"is_email_verified"`
	IsAdmin         bool      `json:"is_admin" db:"is_admin"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is a single cart line for a user.
type CartItem struct {
	ProductID string `json:"product_id" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}
