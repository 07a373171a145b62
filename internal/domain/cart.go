package domain

import "time"

// Cart is a guest's session-scoped collection of gift selections. Totals are
// always derived from the items, never stored, so they cannot drift.
type Cart struct {
	EventID   string     `json:"event_id"`
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// CartItem is a single gift selection. At most one item per gift exists in a
// cart; quantities merge on repeated adds.
type CartItem struct {
	GiftID     string `json:"gift_id"`
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
	ImageURL   string `json:"image_url,omitempty"`
}

// TotalAmount returns the cart total in centavos.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitAmount * int64(item.Quantity)
	}
	return total
}

// TotalItems returns the total number of gift units in the cart.
func (c *Cart) TotalItems() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the item for the given gift, or -1.
func (c *Cart) FindItemIndex(giftID string) int {
	for i := range c.Items {
		if c.Items[i].GiftID == giftID {
			return i
		}
	}
	return -1
}

// RemoveItem deletes the item for the given gift, if present. Removing the
// last unit always deletes the entry; a cart never holds a zero-quantity item.
func (c *Cart) RemoveItem(giftID string) bool {
	i := c.FindItemIndex(giftID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}
