package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	"github.com/CodTeteu/luma-registry/pkg/httputil"
)

// GiftHandler handles HTTP requests for the gift catalog endpoints.
type GiftHandler struct {
	gifts  repository.GiftRepository
	logger *slog.Logger
}

// NewGiftHandler creates a new gift catalog HTTP handler.
func NewGiftHandler(gifts repository.GiftRepository, logger *slog.Logger) *GiftHandler {
	return &GiftHandler{gifts: gifts, logger: logger}
}

// GiftResponse is the JSON representation of a catalog gift, with the
// derived availability included for the storefront.
type GiftResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitAmount  int64  `json:"unit_amount"`
	MaxPerOrder int    `json:"max_per_order"`
	Available   int    `json:"available"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

func newGiftResponse(g *domain.Gift) GiftResponse {
	return GiftResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		UnitAmount:  g.UnitAmount,
		MaxPerOrder: g.MaxQuantity(),
		Available:   g.Available(),
		ImageURL:    g.ImageURL,
		SortOrder:   g.SortOrder,
	}
}

// ListGifts handles GET /api/v1/events/{eventID}/gifts
func (h *GiftHandler) ListGifts(w http.ResponseWriter, r *http.Request) {
	eventID, ok := httputil.ParseUUID(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	gifts, err := h.gifts.ListByEvent(r.Context(), eventID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]GiftResponse, len(gifts))
	for i := range gifts {
		out[i] = newGiftResponse(&gifts[i])
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: out})
}
