package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

// MaxItemsPerCart bounds distinct gifts per cart to prevent abuse.
const MaxItemsPerCart = 50

// CartService implements the business logic for guest session carts. A cart
// belongs to exactly one browsing session; the only cross-session concern is
// the same guest with two tabs open, which the versioned save guards.
type CartService struct {
	carts   repository.CartRepository
	gifts   repository.GiftRepository
	logger  *slog.Logger
	cartTTL time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, gifts repository.GiftRepository, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		carts:   carts,
		gifts:   gifts,
		logger:  logger,
		cartTTL: cartTTL,
	}
}

// GetCart retrieves the session's cart, or an empty cart if none exists.
func (s *CartService) GetCart(ctx context.Context, eventID, sessionID string) (*domain.Cart, error) {
	if eventID == "" {
		return nil, apperrors.InvalidInput("event id is required")
	}
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.carts.Get(ctx, eventID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(eventID, sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddGift adds a gift to the session's cart, merging quantities when the
// gift is already present. Quantities are clamped to the gift's per-order
// range; the gift must exist in the event's catalog.
func (s *CartService) AddGift(ctx context.Context, eventID, sessionID, giftID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveGift(ctx, eventID, sessionID, giftID)
	}

	gift, err := s.lookupGift(ctx, eventID, giftID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, eventID, sessionID)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	if i := cart.FindItemIndex(giftID); i >= 0 {
		cart.Items[i].Quantity = gift.ClampQuantity(cart.Items[i].Quantity + quantity)
		// Refresh the display fields; the authoritative snapshot is taken
		// again at checkout anyway.
		cart.Items[i].Name = gift.Name
		cart.Items[i].UnitAmount = gift.UnitAmount
		cart.Items[i].ImageURL = gift.ImageURL
	} else {
		if len(cart.Items) >= MaxItemsPerCart {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d gifts", MaxItemsPerCart))
		}
		cart.Items = append(cart.Items, domain.CartItem{
			GiftID:     gift.ID,
			Name:       gift.Name,
			UnitAmount: gift.UnitAmount,
			Quantity:   gift.ClampQuantity(quantity),
			ImageURL:   gift.ImageURL,
		})
	}

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "gift added to cart",
		slog.String("event_id", eventID),
		slog.String("session_id", sessionID),
		slog.String("gift_id", giftID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateQuantity sets the quantity of a gift already in the cart. A quantity
// of zero or less removes the gift; anything else is clamped to the gift's
// per-order range.
func (s *CartService) UpdateQuantity(ctx context.Context, eventID, sessionID, giftID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveGift(ctx, eventID, sessionID, giftID)
	}

	gift, err := s.lookupGift(ctx, eventID, giftID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, eventID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("cart item", giftID)
		}
		return nil, fmt.Errorf("get cart for update: %w", err)
	}
	expectedVersion := cart.Version

	i := cart.FindItemIndex(giftID)
	if i < 0 {
		return nil, apperrors.NotFound("cart item", giftID)
	}
	cart.Items[i].Quantity = gift.ClampQuantity(quantity)

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart quantity updated",
		slog.String("event_id", eventID),
		slog.String("session_id", sessionID),
		slog.String("gift_id", giftID),
		slog.Int("quantity", cart.Items[i].Quantity),
	)

	return cart, nil
}

// RemoveGift removes a gift from the cart. Removing a gift that is not in
// the cart is a no-op success: the end state is the same.
func (s *CartService) RemoveGift(ctx context.Context, eventID, sessionID, giftID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, eventID, sessionID)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	if !cart.RemoveItem(giftID) {
		return cart, nil
	}

	if err := s.save(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "gift removed from cart",
		slog.String("event_id", eventID),
		slog.String("session_id", sessionID),
		slog.String("gift_id", giftID),
	)

	return cart, nil
}

// ClearCart removes the session's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, eventID, sessionID string) error {
	if eventID == "" {
		return apperrors.InvalidInput("event id is required")
	}
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.carts.Delete(ctx, eventID, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("event_id", eventID),
		slog.String("session_id", sessionID),
	)

	return nil
}

// lookupGift finds a gift in the event's catalog.
func (s *CartService) lookupGift(ctx context.Context, eventID, giftID string) (*domain.Gift, error) {
	if giftID == "" {
		return nil, apperrors.InvalidInput("gift id is required")
	}

	gifts, err := s.gifts.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}

	for i := range gifts {
		if gifts[i].ID == giftID {
			return &gifts[i], nil
		}
	}

	return nil, apperrors.InvalidGift(giftID)
}

// save persists the cart with optimistic version checking.
func (s *CartService) save(ctx context.Context, cart *domain.Cart, expectedVersion int) error {
	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.carts.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return apperrors.Conflict("cart was modified concurrently, please retry")
	}
	return nil
}

// newEmptyCart creates a fresh cart for the session.
func (s *CartService) newEmptyCart(eventID, sessionID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		EventID:   eventID,
		SessionID: sessionID,
		Items:     []domain.CartItem{},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
