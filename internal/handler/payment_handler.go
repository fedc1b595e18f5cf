package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/payment"
	"storefront/internal/service"
	"storefront/internal/util"
)

// PaymentHandler handles the PayHere checkout and webhook routes.
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// RegisterProtectedRoutes mounts the authenticated payment routes.
func (h *PaymentHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/payhere/create", h.CreateCheckout)
}

// RegisterPublicRoutes mounts the gateway webhook. PayHere signs the
// payload; there is no bearer token on this call.
func (h *PaymentHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/payhere-webhook", h.Webhook)
}

type createCheckoutRequest struct {
	OrderID string `json:"order_id"`
}

func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	params, err := h.paymentService.CreateCheckout(r.Context(), userID, req.OrderID)
	if err != nil {
		respondWithError(w, err, "Failed to create payment")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(params, ""))
}

// Webhook receives the PayHere server-to-server notification as a form
// post.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid form payload")
		return
	}

	statusCode, err := strconv.Atoi(r.PostFormValue("status_code"))
	if err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid status code")
		return
	}

	notification := &payment.Notification{
		MerchantID:    r.PostFormValue("merchant_id"),
		OrderID:       r.PostFormValue("order_id"),
		PaymentID:     r.PostFormValue("payment_id"),
		Amount:        r.PostFormValue("payhere_amount"),
		Currency:      r.PostFormValue("payhere_currency"),
		StatusCode:    statusCode,
		MD5Signature:  r.PostFormValue("md5sig"),
		StatusMessage: r.PostFormValue("status_message"),
	}

	if err := h.paymentService.HandleNotification(r.Context(), notification); err != nil {
		respondWithError(w, err, "Notification rejected")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Notification processed"))
	h.logger.Info("PayHere webhook processed",
		util.String("order_id", notification.OrderID),
		util.Int("status_code", notification.StatusCode),
	)
}
