package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/service"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *zap.Logger
}

func NewReviewHandler(reviewService *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// RegisterPublicRoutes mounts the review reads.
func (h *ReviewHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/product/{productID}", h.ListProductReviews)
}

// RegisterProtectedRoutes mounts the customer review routes.
func (h *ReviewHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/", h.AddReview)
	r.Delete("/{reviewID}", h.DeleteReview)
}

// RegisterAdminRoutes mounts review moderation.
func (h *ReviewHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/list", h.ListAllReviews)
	r.Post("/approve/{reviewID}", h.SetApproved)
}

func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	includeUnapproved := IsAdminFromContext(r.Context())

	reviews, err := h.reviewService.ListProductReviews(r.Context(), productID, includeUnapproved)
	if err != nil {
		respondWithError(w, err, "Failed to list reviews")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    reviews,
		Meta:    &Meta{Total: len(reviews)},
	})
}

type addReviewRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	review, err := h.reviewService.AddReview(r.Context(), userID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		respondWithError(w, err, "Failed to add review")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(review, "Review added"))
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	isAdmin := IsAdminFromContext(r.Context())
	reviewID := chi.URLParam(r, "reviewID")

	if err := h.reviewService.DeleteReview(r.Context(), userID, isAdmin, reviewID); err != nil {
		respondWithError(w, err, "Failed to delete review")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Review deleted"))
}

func (h *ReviewHandler) ListAllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ListAllReviews(r.Context())
	if err != nil {
		respondWithError(w, err, "Failed to list reviews")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    reviews,
		Meta:    &Meta{Total: len(reviews)},
	})
}

type approveReviewRequest struct {
	Approved bool `json:"approved"`
}

func (h *ReviewHandler) SetApproved(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	var req approveReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.reviewService.SetApproved(r.Context(), reviewID, req.Approved); err != nil {
		respondWithError(w, err, "Failed to update review")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Review updated"))
}
