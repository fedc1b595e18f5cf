package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/service"
	"storefront/internal/util"
)

// UserHandler handles HTTP requests for accounts, carts and wishlists.
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterPublicRoutes mounts the unauthenticated account routes.
func (h *UserHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/admin", h.AdminLogin)
	r.Post("/verify-email", h.VerifyEmail)
	r.Post("/resend-verification", h.ResendVerification)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
}

// RegisterProtectedRoutes mounts the routes that need a bearer token.
func (h *UserHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/me", h.Me)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/", h.SetCartItem)
		r.Delete("/", h.ClearCart)
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Get("/", h.GetWishlist)
		r.Post("/", h.AddWishlistItem)
		r.Delete("/{productID}", h.RemoveWishlistItem)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(w, err, "Failed to register")
		return
	}

	respondWithJSON(w, http.StatusCreated,
		successResponse(user, "Account created, check your email for the verification code"))
	h.logger.Info("User registered via HTTP",
		util.String("user_id", user.UserID),
		util.Duration("duration", time.Since(startTime)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, err, "Login failed")
		return
	}

	if result.NeedsVerification {
		respondWithJSON(w, http.StatusOK, successResponse(
			map[string]bool{"needs_verification": true},
			"Email not verified"))
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(result, "Logged in"))
}

func (h *UserHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	token, err := h.userService.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, err, "Admin login failed")
		return
	}

	respondWithJSON(w, http.StatusOK,
		successResponse(map[string]string{"token": token}, "Logged in"))
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.userService.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		respondWithError(w, err, "Verification failed")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Email verified"))
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.userService.ResendVerification(r.Context(), req.Email); err != nil {
		respondWithError(w, err, "Failed to resend verification code")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Verification code sent"))
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		respondWithError(w, err, "Failed to process request")
		return
	}

	respondWithJSON(w, http.StatusOK,
		successResponse(nil, "If the account exists, a reset code has been sent"))
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondWithError(w, err, "Password reset failed")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Password updated"))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err, "Failed to load account")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(user, ""))
}

// ---------- Cart ----------

func (h *UserHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	items, err := h.userService.GetCart(r.Context(), userID)
	if err != nil {
		respondWithError(w, err, "Failed to load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: len(items)},
	})
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *UserHandler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.userService.SetCartItem(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		respondWithError(w, err, "Failed to update cart")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Cart updated"))
}

func (h *UserHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.userService.ClearCart(r.Context(), userID); err != nil {
		respondWithError(w, err, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Cart cleared"))
}

// ---------- Wishlist ----------

func (h *UserHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	productIDs, err := h.userService.GetWishlist(r.Context(), userID)
	if err != nil {
		respondWithError(w, err, "Failed to load wishlist")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    productIDs,
		Meta:    &Meta{Total: len(productIDs)},
	})
}

type wishlistRequest struct {
	ProductID string `json:"product_id"`
}

func (h *UserHandler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req wishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.userService.AddWishlistItem(r.Context(), userID, req.ProductID); err != nil {
		respondWithError(w, err, "Failed to update wishlist")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Added to wishlist"))
}

func (h *UserHandler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	productID := chi.URLParam(r, "productID")

	if err := h.userService.RemoveWishlistItem(r.Context(), userID, productID); err != nil {
		respondWithError(w, err, "Failed to update wishlist")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Removed from wishlist"))
}
