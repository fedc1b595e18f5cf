package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/util"
)

type reviewRepository struct {
	client *ScyllaClient
}

func NewReviewRepository(client *ScyllaClient, logger *zap.Logger) ReviewRepository {
	return &reviewRepository{client: client}
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *model.Review) error {
	if review.ReviewID == "" {
		review.ReviewID = uuid.New().String()
	}
	review.CreatedAt = time.Now().UTC()

	// Dual-write the review and its product lookup row
	batch := r.client.Session.NewBatch(gocql.LoggedBatch)

	batch.Query(r.client.Prepared.CreateReview.Statement(),
		review.ProductID, review.ReviewID, review.UserID, review.UserName,
		review.Rating, review.Comment, review.Approved, review.CreatedAt)

	batch.Query(`INSERT INTO reviews_by_id (review_id, product_id) VALUES (?, ?)`,
		review.ReviewID, review.ProductID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to create review",
			zap.String("review_id", review.ReviewID),
			zap.String("product_id", review.ProductID),
			zap.Error(err))
		return fmt.Errorf("failed to create review: %w", err)
	}

	util.Info("Review created",
		zap.String("review_id", review.ReviewID),
		zap.String("product_id", review.ProductID),
		zap.Int("rating", review.Rating))

	return nil
}

func (r *reviewRepository) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	var productID string

	query := r.client.Prepared.GetReview.Bind(reviewID).WithContext(ctx)
	if err := r.client.ScanWithRetry(query, &productID); err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve review: %w", err)
	}

	review := &model.Review{}
	full := r.client.Session.Query(`
		SELECT product_id, review_id, user_id, user_name, rating, comment,
			approved, created_at
		FROM reviews WHERE product_id = ? AND review_id = ?`,
		productID, reviewID).WithContext(ctx)
	err := full.Scan(&review.ProductID, &review.ReviewID, &review.UserID,
		&review.UserName, &review.Rating, &review.Comment, &review.Approved,
		&review.CreatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID string) ([]*model.Review, error) {
	iter := r.client.Prepared.ListByProduct.Bind(productID).WithContext(ctx).Iter()
	reviews, err := scanReviews(iter)
	if err != nil {
		util.Error("Failed to list reviews",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListAll(ctx context.Context) ([]*model.Review, error) {
	iter := r.client.Session.Query(`
		SELECT product_id, review_id, user_id, user_name, rating, comment,
			approved, created_at
		FROM reviews`).WithContext(ctx).Iter()
	reviews, err := scanReviews(iter)
	if err != nil {
		return nil, fmt.Errorf("failed to list all reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) SetApproved(ctx context.Context, productID, reviewID string, approved bool) error {
	if err := r.client.Prepared.ApproveReview.
		Bind(approved, productID, reviewID).
		WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to set review approval",
			zap.String("review_id", reviewID),
			zap.Error(err))
		return fmt.Errorf("failed to set review approval: %w", err)
	}

	util.Info("Review approval updated",
		zap.String("review_id", reviewID),
		zap.Bool("approved", approved))

	return nil
}

func (r *reviewRepository) DeleteReview(ctx context.Context, productID, reviewID string) error {
	batch := r.client.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.DeleteReview.Statement(), productID, reviewID)
	batch.Query(r.client.Prepared.DeleteReviewRef.Statement(), reviewID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to delete review",
			zap.String("review_id", reviewID),
			zap.Error(err))
		return fmt.Errorf("failed to delete review: %w", err)
	}

	util.Info("Review deleted", zap.String("review_id", reviewID))
	return nil
}

func scanReviews(iter *gocql.Iter) ([]*model.Review, error) {
	var reviews []*model.Review
	for {
		rv := &model.Review{}
		if !iter.Scan(&rv.ProductID, &rv.ReviewID, &rv.UserID, &rv.UserName,
			&rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt) {
			break
		}
		reviews = append(reviews, rv)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return reviews, nil
}
