package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CodTeteu/luma-registry/internal/service"
	"github.com/CodTeteu/luma-registry/pkg/httputil"
	"github.com/CodTeteu/luma-registry/pkg/validator"
)

// CartHandler handles HTTP requests for the session cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddGiftRequest is the JSON request body for adding a gift to the cart.
type AddGiftRequest struct {
	GiftID   string `json:"gift_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the JSON request body for updating a gift's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/events/{eventID}/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), eventID.String(), SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// AddGift handles POST /api/v1/events/{eventID}/cart/items
func (h *CartHandler) AddGift(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.AddGift(r.Context(), eventID.String(), SessionIDFromContext(r.Context()), req.GiftID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// UpdateQuantity handles PUT /api/v1/events/{eventID}/cart/items/{giftID}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}
	giftID, ok := httputil.ParseUUID(w, chi.URLParam(r, "giftID"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), eventID.String(), SessionIDFromContext(r.Context()), giftID.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// RemoveGift handles DELETE /api/v1/events/{eventID}/cart/items/{giftID}
func (h *CartHandler) RemoveGift(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}
	giftID, ok := httputil.ParseUUID(w, chi.URLParam(r, "giftID"))
	if !ok {
		return
	}

	cart, err := h.service.RemoveGift(r.Context(), eventID.String(), SessionIDFromContext(r.Context()), giftID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// ClearCart handles DELETE /api/v1/events/{eventID}/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), eventID.String(), SessionIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
