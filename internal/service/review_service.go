package service

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/repository/scylla"
	"storefront/internal/util"
)

// ReviewService implements product reviews and keeps the owning
// product's rating aggregate in step.
type ReviewService struct {
	reviews  scylla.ReviewRepository
	products scylla.ProductRepository
	users    scylla.UserRepository
}

func NewReviewService(reviews scylla.ReviewRepository, products scylla.ProductRepository, users scylla.UserRepository) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		users:    users,
	}
}

// AddReview stores a review. One review per user per product.
func (s *ReviewService) AddReview(ctx context.Context, userID, productID string, rating int, comment string) (*model.Review, error) {
	if productID == "" || rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	existing, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, rv := range existing {
		if rv.UserID == userID {
			return nil, ErrAlreadyExists
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  user.Name,
		Rating:    rating,
		Comment:   util.SanitizeInput(comment),
		Approved:  true,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	if err := s.recomputeRating(ctx, productID); err != nil {
		util.Warn("Failed to recompute product rating",
			zap.String("product_id", productID),
			zap.Error(err))
	}

	return review, nil
}

// ListProductReviews returns approved reviews for a product. Admins
// see unapproved ones too.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, includeUnapproved bool) ([]*model.Review, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}

	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if includeUnapproved {
		return reviews, nil
	}

	visible := make([]*model.Review, 0, len(reviews))
	for _, rv := range reviews {
		if rv.Approved {
			visible = append(visible, rv)
		}
	}
	return visible, nil
}

// ListAllReviews returns every review, for the admin panel.
func (s *ReviewService) ListAllReviews(ctx context.Context) ([]*model.Review, error) {
	return s.reviews.ListAll(ctx)
}

// SetApproved toggles a review's visibility and recomputes the rating.
func (s *ReviewService) SetApproved(ctx context.Context, reviewID string, approved bool) error {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if err := s.reviews.SetApproved(ctx, review.ProductID, reviewID, approved); err != nil {
		return err
	}

	return s.recomputeRating(ctx, review.ProductID)
}

// DeleteReview removes a review. Non-admin callers can only delete
// their own.
func (s *ReviewService) DeleteReview(ctx context.Context, callerID string, isAdmin bool, reviewID string) error {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if !isAdmin && review.UserID != callerID {
		return ErrForbidden
	}

	if err := s.reviews.DeleteReview(ctx, review.ProductID, reviewID); err != nil {
		return err
	}

	return s.recomputeRating(ctx, review.ProductID)
}

func (s *ReviewService) getReview(ctx context.Context, reviewID string) (*model.Review, error) {
	if reviewID == "" {
		return nil, ErrInvalidInput
	}

	review, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

// recomputeRating re-reads every approved review for the product and
// stores the arithmetic mean and count.
func (s *ReviewService) recomputeRating(ctx context.Context, productID string) error {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}

	var sum, count int
	for _, rv := range reviews {
		if !rv.Approved {
			continue
		}
		sum += rv.Rating
		count++
	}

	var mean float64
	if count > 0 {
		mean = float64(sum) / float64(count)
	}

	return s.products.SetRating(ctx, productID, mean, count)
}
