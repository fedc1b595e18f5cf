package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/util"
)

// OrderHandler handles HTTP requests for checkout and orders.
type OrderHandler struct {
	checkoutService *service.CheckoutService
	orderService    *service.OrderService
	logger          *zap.Logger
}

func NewOrderHandler(checkoutService *service.CheckoutService, orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		logger:          logger,
	}
}

// RegisterProtectedRoutes mounts the customer checkout and order
// routes.
func (h *OrderHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/send-verification", h.SendVerification)
	r.Post("/verify-code", h.VerifyCode)
	r.Post("/create-verified", h.CreateOrder)
	r.Post("/create", h.CreateDirectOrder)
	r.Post("/delivery-fee", h.QuoteDeliveryFee)
	r.Get("/mine", h.ListMyOrders)
	r.Get("/{orderID}", h.GetOrder)
}

// RegisterAdminRoutes mounts the admin order management routes.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/list", h.ListOrders)
	r.Post("/status/{orderID}", h.UpdateStatus)
	r.Post("/paid/{orderID}", h.MarkPaid)
}

type sendVerificationRequest struct {
	DeliveryInfo  model.DeliveryInfo `json:"delivery_info"`
	ServiceType   string             `json:"service_type"`
	PaymentMethod string             `json:"payment_method"`
}

func (h *OrderHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req sendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	sessionID, err := h.checkoutService.SendVerification(r.Context(), userID,
		req.DeliveryInfo, req.ServiceType, req.PaymentMethod)
	if err != nil {
		respondWithError(w, err, "Failed to start checkout verification")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(
		map[string]string{"session_id": sessionID},
		"Verification code sent"))
}

type verifyCodeRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

func (h *OrderHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.checkoutService.VerifyCode(r.Context(), userID, req.SessionID, req.Code); err != nil {
		respondWithError(w, err, "Code verification failed")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Code verified"))
}

type createOrderRequest struct {
	SessionID string `json:"session_id"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	userID, _ := UserIDFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	order, err := h.checkoutService.CreateOrder(r.Context(), userID, req.SessionID)
	if err != nil {
		respondWithError(w, err, "Failed to place order")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(order, "Order placed"))
	h.logger.Info("Order placed via HTTP",
		util.String("order_id", order.OrderID),
		util.String("user_id", userID),
		util.Duration("duration", time.Since(startTime)),
	)
}

type createDirectOrderRequest struct {
	DeliveryInfo model.DeliveryInfo `json:"delivery_info"`
	ServiceType  string             `json:"service_type"`
}

// CreateDirectOrder places a cash-on-delivery order without the code
// verification step.
func (h *OrderHandler) CreateDirectOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createDirectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	order, err := h.checkoutService.CreateDirectOrder(r.Context(), userID,
		req.DeliveryInfo, req.ServiceType)
	if err != nil {
		respondWithError(w, err, "Failed to place order")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(order, "Order placed"))
}

type deliveryFeeRequest struct {
	District    string `json:"district"`
	City        string `json:"city"`
	ServiceType string `json:"service_type"`
}

func (h *OrderHandler) QuoteDeliveryFee(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req deliveryFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	quote, err := h.checkoutService.QuoteDeliveryFee(r.Context(), userID,
		req.District, req.City, req.ServiceType)
	if err != nil {
		respondWithError(w, err, "Failed to quote delivery fee")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(quote, ""))
}

func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	orders, err := h.orderService.ListUserOrders(r.Context(), userID)
	if err != nil {
		respondWithError(w, err, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    orders,
		Meta:    &Meta{Total: len(orders)},
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	isAdmin := IsAdminFromContext(r.Context())
	orderID := chi.URLParam(r, "orderID")

	order, err := h.orderService.GetOrder(r.Context(), userID, isAdmin, orderID)
	if err != nil {
		respondWithError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(order, ""))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		respondWithError(w, err, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    orders,
		Meta:    &Meta{Total: len(orders)},
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		respondWithError(w, err, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Order status updated"))
}

func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	if err := h.orderService.MarkPaid(r.Context(), orderID); err != nil {
		respondWithError(w, err, "Failed to mark order paid")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Order marked paid"))
}
