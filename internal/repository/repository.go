package repository

import (
	"context"
	"errors"

	"github.com/CodTeteu/luma-registry/internal/domain"
)

// Storage-level sentinel errors surfaced by the order repository so the
// checkout service can react: retry with a fresh reference code, or collapse
// onto the order already created for the same idempotency token.
var (
	// ErrReferenceCodeTaken means the generated reference code collided with
	// an existing order of the same event (unique index violation).
	ErrReferenceCodeTaken = errors.New("reference code already taken")

	// ErrDuplicateToken means another request with the same idempotency token
	// committed first; the caller should look up the winning order.
	ErrDuplicateToken = errors.New("idempotency token already used")

	// ErrStockExhausted means a conditional stock reservation failed because
	// the gift's remaining stock does not cover the requested quantity.
	ErrStockExhausted = errors.New("insufficient gift stock")
)

// StockError wraps ErrStockExhausted with the gift that ran out.
type StockError struct {
	GiftID string
}

func (e *StockError) Error() string {
	return "insufficient stock for gift " + e.GiftID
}

func (e *StockError) Unwrap() error {
	return ErrStockExhausted
}

// OrderFilter defines filter criteria for listing an event's orders.
type OrderFilter struct {
	EventID string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines persistence operations for registry orders.
type OrderRepository interface {
	// Create persists an order, its items, the stock reservations for capped
	// gifts, and the idempotency token in one transaction. Either everything
	// commits or nothing does. Returns ErrReferenceCodeTaken,
	// ErrDuplicateToken, or a *StockError on the respective conflicts.
	Create(ctx context.Context, order *domain.Order, idempotencyToken string) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByReference retrieves an order by its event-scoped reference code.
	GetByReference(ctx context.Context, eventID, referenceCode string) (*domain.Order, error)

	// GetByToken returns the order previously created for the given
	// idempotency token within the event, if any.
	GetByToken(ctx context.Context, eventID, token string) (*domain.Order, error)

	// List returns orders matching the filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus changes the status of an order. Last write wins; the
	// status snapshot invariants are enforced by the service layer.
	// Cancelling releases the order's stock reservations and re-opening a
	// cancelled order reclaims them, in the same transaction; reclaiming
	// returns a *StockError when a capped gift can no longer cover an item.
	UpdateStatus(ctx context.Context, id string, status string) error

	// StatsByEvent folds the event's orders into per-status buckets.
	StatsByEvent(ctx context.Context, eventID string) (*domain.OrderStats, error)

	// DeleteExpiredTokens removes idempotency tokens past their retention
	// window. Returns the number of rows removed.
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

// GiftRepository defines read-only access to the host-configured gift catalog.
type GiftRepository interface {
	// ListByEvent returns the active gifts configured for an event, in the
	// host's display order.
	ListByEvent(ctx context.Context, eventID string) ([]domain.Gift, error)

	// GetRegistryConfig returns the event's gift-registry configuration
	// (PIX receiving details), validated at this boundary.
	GetRegistryConfig(ctx context.Context, eventID string) (*domain.RegistryConfig, error)
}

// CartRepository defines persistence for guest session carts.
type CartRepository interface {
	// Get retrieves the cart for an event session.
	Get(ctx context.Context, eventID, sessionID string) (*domain.Cart, error)

	// SaveIfVersion persists the cart only if the stored version still equals
	// expectedVersion, bumping the version on success. Returns false when a
	// concurrent write got there first.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes the cart for an event session.
	Delete(ctx context.Context, eventID, sessionID string) error
}
