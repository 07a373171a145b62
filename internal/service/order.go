package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListOrdersInput carries the filter for an event's order listing.
type ListOrdersInput struct {
	EventID string
	Status  string
	Page    int
	PerPage int
}

// OrderService implements order retrieval and the host-facing status
// lifecycle. Status changes are manual attestations of off-system facts (a
// bank transfer arrived, a guest called to cancel), so every transition
// between valid statuses is allowed in both directions.
type OrderService struct {
	orders    repository.OrderRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, publisher EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// GetOrder retrieves an order by its unique identifier.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetOrderByReference retrieves an order by its event-scoped reference code.
func (s *OrderService) GetOrderByReference(ctx context.Context, eventID, referenceCode string) (*domain.Order, error) {
	if eventID == "" {
		return nil, apperrors.InvalidInput("event id is required")
	}
	if referenceCode == "" {
		return nil, apperrors.InvalidInput("reference code is required")
	}
	order, err := s.orders.GetByReference(ctx, eventID, referenceCode)
	if err != nil {
		return nil, fmt.Errorf("get order by reference: %w", err)
	}
	return order, nil
}

// ListOrders returns a page of an event's orders, newest first, along with
// the total count for the filter.
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) ([]domain.Order, int, error) {
	if input.EventID == "" {
		return nil, 0, apperrors.InvalidInput("event id is required")
	}

	filter := repository.OrderFilter{
		EventID: input.EventID,
		Page:    input.Page,
		PerPage: input.PerPage,
	}
	if input.Status != "" {
		if !domain.IsValidStatus(input.Status) {
			return nil, 0, apperrors.InvalidStatus(input.Status)
		}
		filter.Status = &input.Status
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultPerPage
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// SetStatus moves an order to the given status. Setting the status the order
// already has is a no-op success and publishes nothing.
func (s *OrderService) SetStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidStatus(status)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status change: %w", err)
	}

	if order.Status == status {
		return order, nil
	}
	if !order.CanTransitionTo(status) {
		return nil, apperrors.InvalidStatus(status)
	}

	oldStatus := order.Status
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		var stockErr *repository.StockError
		if errors.As(err, &stockErr) {
			// Re-opening a cancelled order could not win back the stock.
			return nil, apperrors.StockExhausted(stockErr.GiftID)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status

	if err := s.publisher.PublishOrderStatusChanged(ctx, order, oldStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order status changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", order.ID),
		slog.String("event_id", order.EventID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", status),
	)

	return order, nil
}
