package domain

import (
	"fmt"
	"time"
)

// Order status constants. The set is closed: anything else is rejected at
// the boundary.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Order is the durable artifact of a checkout. Item lines and TotalAmount are
// a price snapshot taken at checkout time and are write-once; only Status and
// UpdatedAt change afterwards. Orders are never physically deleted:
// cancellation is a status.
type Order struct {
	ID            string      `json:"id"`
	EventID       string      `json:"event_id"`
	ReferenceCode string      `json:"reference_code"`
	GuestName     string      `json:"guest_name,omitempty"`
	GuestEmail    string      `json:"guest_email,omitempty"`
	Message       string      `json:"message,omitempty"`
	Items         []OrderItem `json:"items"`
	TotalAmount   int64       `json:"total_amount"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderItem is an immutable line of an order, priced from the catalog as it
// was at checkout time.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	GiftID     string `json:"gift_id"`
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
	LineTotal  int64  `json:"line_total"`
}

// ComputedLineTotal returns unit amount times quantity.
func (i *OrderItem) ComputedLineTotal() int64 {
	return i.UnitAmount * int64(i.Quantity)
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled}
}

// IsValidStatus checks whether a status string belongs to the closed set.
func IsValidStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the order may move to the target status.
// Every pair of valid statuses is an allowed transition: confirmation is a
// manual attestation by the host, not an external system fact, so the host
// must always be able to correct a mistake. Setting the current status again
// is also allowed and treated as a no-op by the caller.
func (o *Order) CanTransitionTo(target string) bool {
	return IsValidStatus(target)
}

// Validate checks the snapshot invariants: every line total equals unit
// amount times quantity, and the order total equals the sum of line totals.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return fmt.Errorf("order %s has no items", o.ID)
	}
	var sum int64
	for _, item := range o.Items {
		if item.LineTotal != item.ComputedLineTotal() {
			return fmt.Errorf("order %s item %s: line total %d does not match %d x %d",
				o.ID, item.GiftID, item.LineTotal, item.UnitAmount, item.Quantity)
		}
		sum += item.LineTotal
	}
	if o.TotalAmount != sum {
		return fmt.Errorf("order %s: total %d does not match item sum %d", o.ID, o.TotalAmount, sum)
	}
	return nil
}
