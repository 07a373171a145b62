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

// CheckoutHandler handles HTTP requests for the checkout endpoint.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	carts    *service.CartService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(checkout *service.CheckoutService, carts *service.CartService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
		logger:   logger,
	}
}

// --- Request DTOs ---

// CheckoutItemRequest is a single gift line of a checkout request.
type CheckoutItemRequest struct {
	GiftID   string `json:"gift_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// CheckoutRequest is the JSON request body for a checkout.
type CheckoutRequest struct {
	Items            []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
	GuestName        string                `json:"guest_name" validate:"omitempty,max=200"`
	GuestEmail       string                `json:"guest_email" validate:"omitempty,email"`
	Message          string                `json:"message" validate:"omitempty,max=2000"`
	IdempotencyToken string                `json:"idempotency_token" validate:"required,min=8,max=128"`
}

// Checkout handles POST /api/v1/events/{eventID}/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CheckoutRequest
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

	items := make([]service.CheckoutItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItemInput{
			GiftID:   item.GiftID,
			Quantity: item.Quantity,
		}
	}

	input := service.CheckoutInput{
		EventID:          eventID.String(),
		IdempotencyToken: req.IdempotencyToken,
		GuestName:        req.GuestName,
		GuestEmail:       req.GuestEmail,
		Message:          req.Message,
		Items:            items,
	}

	result, err := h.checkout.Checkout(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// The order is committed; the session cart is spent. Clearing it is best
	// effort, a stale cart only haunts this one browser session.
	if sessionID := SessionIDFromContext(r.Context()); sessionID != "" {
		if err := h.carts.ClearCart(r.Context(), eventID.String(), sessionID); err != nil {
			h.logger.WarnContext(r.Context(), "failed to clear cart after checkout",
				slog.String("event_id", eventID.String()),
				slog.String("order_id", result.Order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}
