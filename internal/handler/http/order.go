package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/CodTeteu/luma-registry/internal/service"
	"github.com/CodTeteu/luma-registry/pkg/httputil"
	"github.com/CodTeteu/luma-registry/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orders *service.OrderService
	stats  *service.StatsService
	logger *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, stats *service.StatsService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		stats:  stats,
		logger: logger,
	}
}

// UpdateStatusRequest is the JSON request body for updating order status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// ListOrders handles GET /api/v1/events/{eventID}/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	input := service.ListOrdersInput{
		EventID: eventID.String(),
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		input.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		input.PerPage = perPage
	}
	input.Status = r.URL.Query().Get("status")

	orders, total, err := h.orders.ListOrders(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, input.Page, input.PerPage))
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// GetOrderByReference handles GET /api/v1/events/{eventID}/orders/reference/{code}
func (h *OrderHandler) GetOrderByReference(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}
	code := strings.ToUpper(chi.URLParam(r, "code"))

	order, err := h.orders.GetOrderByReference(r.Context(), eventID.String(), code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateOrderStatus handles PUT /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
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

	order, err := h.orders.SetStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// GetStats handles GET /api/v1/events/{eventID}/orders/stats
func (h *OrderHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	stats, err := h.stats.EventStats(r.Context(), eventID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
