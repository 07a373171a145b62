package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CodTeteu/luma-registry/internal/domain"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

const keyPrefix = "giftcart:"

// CartRepository implements repository.CartRepository using Redis. Carts are
// session-scoped with a TTL and carry no durability guarantee beyond the
// browsing session.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func cartKey(eventID, sessionID string) string {
	return keyPrefix + eventID + ":" + sessionID
}

// Get retrieves the cart for an event session.
func (r *CartRepository) Get(ctx context.Context, eventID, sessionID string) (*domain.Cart, error) {
	key := cartKey(eventID, sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// SaveIfVersion persists the cart only if the stored version still equals
// expectedVersion, using WATCH so the compare-and-set is atomic. A cart that
// does not exist yet has version 0. Returns false when a concurrent write
// invalidated the expectation.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	key := cartKey(cart.EventID, cart.SessionID)
	saved := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// No stored cart; only version 0 may create it.
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			var stored domain.Cart
			if err := json.Unmarshal(data, &stored); err != nil {
				return fmt.Errorf("unmarshal stored cart: %w", err)
			}
			current = stored.Version
		}

		if current != expectedVersion {
			return nil
		}

		cart.Version = expectedVersion + 1
		payload, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		saved = true
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// The key changed between WATCH and EXEC.
			return false, nil
		}
		return false, fmt.Errorf("redis save cart: %w", err)
	}

	return saved, nil
}

// Delete removes the cart for an event session.
func (r *CartRepository) Delete(ctx context.Context, eventID, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(eventID, sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
