package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/service"
)

// ContactHandler handles the contact form and its admin inbox.
type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// RegisterPublicRoutes mounts the contact form submission.
func (h *ContactHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.SubmitMessage)
}

// RegisterAdminRoutes mounts the inbox management routes.
func (h *ContactHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/list", h.ListMessages)
	r.Get("/{messageID}", h.GetMessage)
	r.Post("/status/{messageID}", h.SetStatus)
	r.Delete("/{messageID}", h.DeleteMessage)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *ContactHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	message, err := h.contactService.SubmitMessage(r.Context(), req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		respondWithError(w, err, "Failed to submit message")
		return
	}

	respondWithJSON(w, http.StatusCreated, successResponse(
		map[string]string{"message_id": message.MessageID},
		"Message received"))
}

func (h *ContactHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contactService.ListMessages(r.Context())
	if err != nil {
		respondWithError(w, err, "Failed to list messages")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    messages,
		Meta:    &Meta{Total: len(messages)},
	})
}

func (h *ContactHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	message, err := h.contactService.GetMessage(r.Context(), messageID)
	if err != nil {
		respondWithError(w, err, "Failed to get message")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(message, ""))
}

type contactStatusRequest struct {
	Status string `json:"status"`
}

func (h *ContactHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	var req contactStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, service.ErrInvalidInput, "Invalid request body")
		return
	}

	if err := h.contactService.SetStatus(r.Context(), messageID, req.Status); err != nil {
		respondWithError(w, err, "Failed to update message")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Message updated"))
}

func (h *ContactHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	if err := h.contactService.DeleteMessage(r.Context(), messageID); err != nil {
		respondWithError(w, err, "Failed to delete message")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Message deleted"))
}
