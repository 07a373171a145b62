package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/pkg/database"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

// GiftRepository implements repository.GiftRepository using PostgreSQL.
// The catalog is owned by the host's event configuration; this repository
// only ever reads it (stock reservations happen inside the order
// transaction, keyed by gift ID).
type GiftRepository struct {
	pool database.DBTX
}

// NewGiftRepository creates a new PostgreSQL-backed gift catalog repository.
func NewGiftRepository(pool database.DBTX) *GiftRepository {
	return &GiftRepository{pool: pool}
}

// ListByEvent returns the active gifts configured for an event in display
// order.
func (r *GiftRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Gift, error) {
	query := `
		SELECT id, event_id, name, description, unit_amount, max_per_order, total_stock, reserved, image_url, sort_order, active
		FROM event_gifts
		WHERE event_id = $1 AND active
		ORDER BY sort_order, name`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	defer rows.Close()

	gifts := make([]domain.Gift, 0)
	for rows.Next() {
		var g domain.Gift
		if err := rows.Scan(
			&g.ID, &g.EventID, &g.Name, &g.Description, &g.UnitAmount,
			&g.MaxPerOrder, &g.TotalStock, &g.Reserved, &g.ImageURL,
			&g.SortOrder, &g.Active,
		); err != nil {
			return nil, fmt.Errorf("scan gift row: %w", err)
		}
		gifts = append(gifts, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gift rows: %w", err)
	}

	return gifts, nil
}

// GetRegistryConfig returns the event's gift-registry configuration. The PIX
// sub-schema is optional on the event row; it is validated here, once, so
// the rest of the core never sees a half-configured registry.
func (r *GiftRepository) GetRegistryConfig(ctx context.Context, eventID string) (*domain.RegistryConfig, error) {
	query := `
		SELECT id, name, COALESCE(pix_key, ''), COALESCE(pix_holder_name, ''), COALESCE(registry_welcome_text, '')
		FROM events
		WHERE id = $1`

	var cfg domain.RegistryConfig
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&cfg.EventID, &cfg.EventName, &cfg.PixKey, &cfg.PixHolderName, &cfg.WelcomeText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("event", eventID)
		}
		return nil, fmt.Errorf("scan registry config: %w", err)
	}

	if !cfg.Enabled() {
		return nil, apperrors.InvalidInput("gift registry is not configured for this event")
	}

	return &cfg, nil
}
