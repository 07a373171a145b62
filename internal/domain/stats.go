package domain

// StatusBucket summarizes the orders in one status.
type StatusBucket struct {
	Count       int   `json:"count"`
	TotalAmount int64 `json:"total_amount"`
}

// OrderStats is a derived, read-side summary of an event's orders for the
// host dashboard. It holds no independent state and is never a source of
// truth; it is recomputed on demand by folding over the event's orders.
type OrderStats struct {
	EventID   string       `json:"event_id"`
	Pending   StatusBucket `json:"pending"`
	Confirmed StatusBucket `json:"confirmed"`
	Cancelled StatusBucket `json:"cancelled"`
}

// Add folds one order into the stats. Unknown statuses are ignored; they
// cannot exist past the boundary validation.
func (s *OrderStats) Add(status string, totalAmount int64) {
	switch status {
	case OrderStatusPending:
		s.Pending.Count++
		s.Pending.TotalAmount += totalAmount
	case OrderStatusConfirmed:
		s.Confirmed.Count++
		s.Confirmed.TotalAmount += totalAmount
	case OrderStatusCancelled:
		s.Cancelled.Count++
		s.Cancelled.TotalAmount += totalAmount
	}
}

// TotalCount returns the number of orders across all statuses.
func (s *OrderStats) TotalCount() int {
	return s.Pending.Count + s.Confirmed.Count + s.Cancelled.Count
}

// GrandTotal returns the amount across all statuses, in centavos.
func (s *OrderStats) GrandTotal() int64 {
	return s.Pending.TotalAmount + s.Confirmed.TotalAmount + s.Cancelled.TotalAmount
}
