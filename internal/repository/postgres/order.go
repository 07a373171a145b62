package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	"github.com/CodTeteu/luma-registry/pkg/database"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

// Unique constraint names used to map 23505 violations onto repository
// sentinels. They must match the names in the migrations.
const (
	constraintOrderReference = "registry_orders_event_id_reference_code_key"
	constraintCheckoutToken  = "checkout_tokens_pkey"
)

// tokenRetention is how long an idempotency token guards against duplicate
// submission before it is eligible for cleanup.
const tokenRetention = 24 * time.Hour

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// isUniqueViolation reports whether err is a 23505 on the given constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// Create persists the order, its items, the stock reservations, and the
// idempotency token atomically. The token insert and the conditional stock
// updates run inside the same transaction as the order insert, so either the
// whole checkout commits or nothing becomes visible.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order, idempotencyToken string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The order row goes in first: checkout_tokens.order_id references it
	// with a non-deferrable foreign key, so the token row cannot exist
	// before the order row within the transaction.
	orderQuery := `
		INSERT INTO registry_orders (id, event_id, reference_code, guest_name, guest_email, message, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID, o.EventID, o.ReferenceCode, o.GuestName, o.GuestEmail, o.Message,
		o.TotalAmount, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintOrderReference) {
			return repository.ErrReferenceCodeTaken
		}
		return fmt.Errorf("insert order: %w", err)
	}

	// Reserve stock with a conditional update per line. The predicate makes
	// the check-and-decrement a single atomic operation at the storage
	// layer; two concurrent checkouts cannot both see the last unit.
	reserveQuery := `
		UPDATE event_gifts
		SET reserved = reserved + $1
		WHERE id = $2 AND event_id = $3 AND active
		  AND (total_stock IS NULL OR reserved + $1 <= total_stock)`

	for _, item := range o.Items {
		ct, err := tx.Exec(ctx, reserveQuery, item.Quantity, item.GiftID, o.EventID)
		if err != nil {
			return fmt.Errorf("reserve stock for gift %s: %w", item.GiftID, err)
		}
		if ct.RowsAffected() == 0 {
			return &repository.StockError{GiftID: item.GiftID}
		}
	}

	// Claim the idempotency token. A concurrent retry of the same request
	// loses here, rolls back whole, and collapses onto the winner's order.
	tokenQuery := `
		INSERT INTO checkout_tokens (event_id, token, order_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.Exec(ctx, tokenQuery,
		o.EventID, idempotencyToken, o.ID, o.CreatedAt, o.CreatedAt.Add(tokenRetention),
	)
	if err != nil {
		if isUniqueViolation(err, constraintCheckoutToken) {
			return repository.ErrDuplicateToken
		}
		return fmt.Errorf("insert checkout token: %w", err)
	}

	itemQuery := `
		INSERT INTO registry_order_items (id, order_id, gift_id, name, unit_amount, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.GiftID, item.Name,
			item.UnitAmount, item.Quantity, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const orderColumns = `id, event_id, reference_code, guest_name, guest_email, message, total_amount, status, created_at, updated_at`

// scanOrder scans one order row.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.EventID, &o.ReferenceCode, &o.GuestName, &o.GuestEmail,
		&o.Message, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// GetByID retrieves an order by its ID, including items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM registry_orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if o.Items, err = r.loadOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByReference retrieves an order by its event-scoped reference code.
func (r *OrderRepository) GetByReference(ctx context.Context, eventID, referenceCode string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM registry_orders WHERE event_id = $1 AND reference_code = $2`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, eventID, referenceCode))
	if err != nil {
		return nil, err
	}

	if o.Items, err = r.loadOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByToken returns the order created for the given idempotency token, or
// ErrNotFound when the token has never been used within the event.
func (r *OrderRepository) GetByToken(ctx context.Context, eventID, token string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM registry_orders
		WHERE id = (SELECT order_id FROM checkout_tokens WHERE event_id = $1 AND token = $2)`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, eventID, token))
	if err != nil {
		return nil, err
	}

	if o.Items, err = r.loadOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns an event's orders matching the filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	conditions := []string{"event_id = $1"}
	args := []any{filter.EventID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	// count(*) OVER() returns the total next to every row, avoiding a
	// second counting query.
	query := fmt.Sprintf(`
		SELECT `+orderColumns+`, count(*) OVER() AS total_count
		FROM registry_orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.EventID, &o.ReferenceCode, &o.GuestName, &o.GuestEmail,
			&o.Message, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items for all orders in one query.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemsQuery := `
			SELECT id, order_id, gift_id, name, unit_amount, quantity, line_total
			FROM registry_order_items
			WHERE order_id = ANY($1)
			ORDER BY id`

		itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		itemsByOrderID := make(map[string][]domain.OrderItem, len(orders))
		for itemRows.Next() {
			var item domain.OrderItem
			if err := itemRows.Scan(
				&item.ID, &item.OrderID, &item.GiftID, &item.Name,
				&item.UnitAmount, &item.Quantity, &item.LineTotal,
			); err != nil {
				return nil, 0, fmt.Errorf("scan order item: %w", err)
			}
			itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate order item rows: %w", err)
		}

		for i := range orders {
			if items, ok := itemsByOrderID[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, totalCount, nil
}

// UpdateStatus changes an order's status. Last write wins: concurrent host
// updates to the same order are manual, human-reviewed actions and need no
// stronger guarantee. Crossing the cancelled boundary adjusts the stock
// reservations in the same transaction: cancelling releases the order's
// reserved units, re-opening a cancelled order claims them back and fails
// with StockError when a capped gift can no longer cover them.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM registry_orders WHERE id = $1 FOR UPDATE`, id).Scan(&oldStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		return fmt.Errorf("lock order for status change: %w", err)
	}

	query := `
		UPDATE registry_orders
		SET status = $1, updated_at = $2
		WHERE id = $3`

	if _, err := tx.Exec(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	switch {
	case status == domain.OrderStatusCancelled && oldStatus != domain.OrderStatusCancelled:
		if err := releaseReservations(ctx, tx, id); err != nil {
			return err
		}
	case oldStatus == domain.OrderStatusCancelled && status != domain.OrderStatusCancelled:
		if err := reclaimReservations(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// releaseReservations gives back the reserved units of a cancelled order's
// items. Floored at zero so an out-of-band reserved correction can never go
// negative.
func releaseReservations(ctx context.Context, tx pgx.Tx, orderID string) error {
	query := `
		UPDATE event_gifts g
		SET reserved = GREATEST(g.reserved - i.quantity, 0)
		FROM registry_order_items i
		WHERE i.order_id = $1 AND g.id = i.gift_id`

	if _, err := tx.Exec(ctx, query, orderID); err != nil {
		return fmt.Errorf("release stock reservations: %w", err)
	}
	return nil
}

// reclaimReservations re-reserves a re-opened order's items with the same
// conditional check as checkout. The gift's active flag is not consulted:
// the order already exists, so catalog visibility has no bearing here.
func reclaimReservations(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx, `SELECT gift_id, quantity FROM registry_order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("query order items for reclaim: %w", err)
	}

	type line struct {
		giftID string
		qty    int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.giftID, &l.qty); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item for reclaim: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items for reclaim: %w", err)
	}

	query := `
		UPDATE event_gifts
		SET reserved = reserved + $1
		WHERE id = $2 AND (total_stock IS NULL OR reserved + $1 <= total_stock)`

	for _, l := range lines {
		ct, err := tx.Exec(ctx, query, l.qty, l.giftID)
		if err != nil {
			return fmt.Errorf("reclaim stock for gift %s: %w", l.giftID, err)
		}
		if ct.RowsAffected() == 0 {
			return &repository.StockError{GiftID: l.giftID}
		}
	}
	return nil
}

// StatsByEvent folds the event's orders into per-status count and amount
// buckets. Always recomputed from the order rows; never cached here.
func (r *OrderRepository) StatsByEvent(ctx context.Context, eventID string) (*domain.OrderStats, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM registry_orders
		WHERE event_id = $1
		GROUP BY status`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("query order stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.OrderStats{EventID: eventID}
	for rows.Next() {
		var (
			status string
			count  int
			total  int64
		)
		if err := rows.Scan(&status, &count, &total); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		switch status {
		case domain.OrderStatusPending:
			stats.Pending = domain.StatusBucket{Count: count, TotalAmount: total}
		case domain.OrderStatusConfirmed:
			stats.Confirmed = domain.StatusBucket{Count: count, TotalAmount: total}
		case domain.OrderStatusCancelled:
			stats.Cancelled = domain.StatusBucket{Count: count, TotalAmount: total}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}

	return stats, nil
}

// DeleteExpiredTokens removes idempotency tokens past their retention window.
func (r *OrderRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM checkout_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

// loadOrderItems retrieves all items belonging to a given order.
func (r *OrderRepository) loadOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, gift_id, name, unit_amount, quantity, line_total
		FROM registry_order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.GiftID, &item.Name,
			&item.UnitAmount, &item.Quantity, &item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}

	return items, nil
}
