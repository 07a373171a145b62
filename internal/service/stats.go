package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

// StatsService aggregates an event's orders into per-status totals. The
// figures are derived on demand from the order rows; they are a dashboard
// convenience, not an accounting source of truth.
type StatsService struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(orders repository.OrderRepository, logger *slog.Logger) *StatsService {
	return &StatsService{orders: orders, logger: logger}
}

// EventStats returns the per-status order counts and amounts for an event.
// An event with no orders yields zeroed buckets, not an error.
func (s *StatsService) EventStats(ctx context.Context, eventID string) (*domain.OrderStats, error) {
	if eventID == "" {
		return nil, apperrors.InvalidInput("event id is required")
	}
	stats, err := s.orders.StatsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("stats by event: %w", err)
	}
	return stats, nil
}
