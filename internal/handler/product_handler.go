package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/service"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterPublicRoutes mounts catalog reads.
func (h *ProductHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/list", h.ListProducts)
	r.Get("/search", h.SearchProducts)
	r.Get("/single/{productID}", h.GetProduct)
	r.Get("/stock/{productID}", h.StockStatus)
}

// RegisterAdminRoutes mounts catalog mutations.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/add", h.AddProduct)
	r.Put("/update/{productID}", h.UpdateProduct)
	r.Post("/remove/{productID}", h.RemoveProduct)
	r.Put("/stock/{productID}", h.SetStock)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListProducts(r.Context())
	if err != nil {
		respondWithError(w, err, "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    products,
		Meta:    &Meta{Total: len(products)},
	})
}

func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.productService.SearchProducts(r.Context(), query, category, limit)
	if err != nil {
		respondWithError(w, err, "Search failed")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    products,
		Meta:    &Meta{Total: len(products)},
	})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	product, err := h.productService.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithError(w, err, "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(product, ""))
}

func (h *ProductHandler) StockStatus(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	status, stock, err := h.productService.StockStatus(r.Context(), productID)
	if err != nil {
		respondWithError(w, err, "Failed to get stock status")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"product_id": productID,
		"stock":      stock,
		"status":     status,
	}, ""))
}

func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	created, err := h.productService.AddProduct(r.Context(), &product)
	if err != nil {
		respondWithError(w, err, "Failed to add product")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(created, "Product added"))
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}
	product.ProductID = chi.URLParam(r, "productID")

	updated, err := h.productService.UpdateProduct(r.Context(), &product)
	if err != nil {
		respondWithError(w, err, "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(updated, "Product updated"))
}

func (h *ProductHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	if err := h.productService.RemoveProduct(r.Context(), productID); err != nil {
		respondWithError(w, err, "Failed to remove product")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Product removed"))
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.productService.SetStock(r.Context(), productID, req.Stock); err != nil {
		respondWithError(w, err, "Failed to set stock")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Stock updated"))
}
