package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/bucketing"
	"storefront/internal/model"
	"storefront/internal/util"
)

type userRepository struct {
	client  *ScyllaClient
	buckets *bucketing.BucketingManager
}

func NewUserRepository(client *ScyllaClient, buckets *bucketing.BucketingManager, logger *zap.Logger) UserRepository {
	return &userRepository{
		client:  client,
		buckets: buckets,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	user.UserBucket = r.buckets.UserBucket(user.UserID)

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	// Dual-write users and the email lookup row in one logged batch
	batch := r.client.Session.NewBatch(gocql.LoggedBatch)

	batch.Query(r.client.Prepared.CreateUser.Statement(),
		user.UserBucket, user.UserID, user.Name, user.Email, user.PasswordHash,
		user.IsEmailVerified, user.IsAdmin, user.CreatedAt, user.UpdatedAt)

	batch.Query(r.client.Prepared.CreateEmailToUser.Statement(),
		user.Email, user.UserBucket, user.UserID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to create user",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	util.Info("User created",
		zap.String("user_id", user.UserID),
		zap.Int("user_bucket", user.UserBucket))

	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user := &model.User{}
	bucket := r.buckets.UserBucket(userID)

	query := r.client.Prepared.GetUserByID.Bind(bucket, userID).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&user.UserBucket, &user.UserID, &user.Name, &user.Email, &user.PasswordHash,
		&user.IsEmailVerified, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		util.Error("Failed to get user by ID",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var bucket int
	var userID string

	query := r.client.Prepared.GetUserByEmail.Bind(email).WithContext(ctx)
	if err := r.client.ScanWithRetry(query, &bucket, &userID); err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		util.Error("Failed to resolve user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to resolve user by email: %w", err)
	}

	return r.GetUserByID(ctx, userID)
}

func (r *userRepository) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	bucket := r.buckets.UserBucket(userID)
	now := time.Now().UTC()

	query := r.client.Prepared.SetEmailVerified.Bind(verified, now, bucket, userID).WithContext(ctx)
	if err := query.Exec(); err != nil {
		util.Error("Failed to set email verified",
			zap.String("user_id", userID),
			zap.Bool("verified", verified),
			zap.Error(err))
		return fmt.Errorf("failed to set email verified: %w", err)
	}

	util.Info("User email verification updated",
		zap.String("user_id", userID),
		zap.Bool("verified", verified))

	return nil
}

func (r *userRepository) SetPassword(ctx context.Context, userID, passwordHash string) error {
	bucket := r.buckets.UserBucket(userID)
	now := time.Now().UTC()

	query := r.client.Session.Query(`
		UPDATE users SET password_hash = ?, updated_at = ?
		WHERE user_bucket = ? AND user_id = ?`,
		passwordHash, now, bucket, userID).WithContext(ctx)
	if err := query.Exec(); err != nil {
		util.Error("Failed to set password",
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to set password: %w", err)
	}

	util.Info("User password updated", zap.String("user_id", userID))
	return nil
}

func (r *userRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	query := r.client.Session.Query(`SELECT COUNT(*) FROM users`).WithContext(ctx)
	if err := query.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ---------- Cart ----------

func (r *userRepository) GetCart(ctx context.Context, userID string) ([]model.CartItem, error) {
	iter := r.client.Prepared.GetCart.Bind(userID).WithContext(ctx).Iter()

	var items []model.CartItem
	var productID string
	var quantity int
	for iter.Scan(&productID, &quantity) {
		items = append(items, model.CartItem{ProductID: productID, Quantity: quantity})
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to read cart", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	return items, nil
}

func (r *userRepository) SetCartItem(ctx context.Context, userID, productID string, quantity int) error {
	// Quantity zero removes the line
	if quantity <= 0 {
		if err := r.client.Prepared.DeleteCartItem.Bind(userID, productID).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		return nil
	}

	if err := r.client.Prepared.UpsertCartItem.Bind(userID, productID, quantity).WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to upsert cart item",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

func (r *userRepository) ClearCart(ctx context.Context, userID string) error {
	if err := r.client.Prepared.ClearCart.Bind(userID).WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ---------- Wishlist ----------

func (r *userRepository) GetWishlist(ctx context.Context, userID string) ([]string, error) {
	iter := r.client.Prepared.GetWishlist.Bind(userID).WithContext(ctx).Iter()

	var productIDs []string
	var productID string
	for iter.Scan(&productID) {
		productIDs = append(productIDs, productID)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read wishlist: %w", err)
	}

	return productIDs, nil
}

func (r *userRepository) AddWishlistItem(ctx context.Context, userID, productID string) error {
	now := time.Now().UTC()
	if err := r.client.Prepared.AddWishlistItem.Bind(userID, productID, now).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

func (r *userRepository) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	if err := r.client.Prepared.RemoveWishlistItem.Bind(userID, productID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}
