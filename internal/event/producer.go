package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CodTeteu/luma-registry/internal/domain"
	pkgkafka "github.com/CodTeteu/luma-registry/pkg/kafka"
)

// Kafka topic constants for registry domain events.
const (
	TopicOrderCreated       = "luma.registry.order.created"
	TopicOrderStatusChanged = "luma.registry.order.status_changed"
)

const (
	aggregateTypeOrder = "registry_order"
	sourceRegistry     = "registry-service"
)

// OrderCreatedData is the payload for an order.created event (full snapshot).
type OrderCreatedData struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	ReferenceCode string          `json:"reference_code"`
	GuestName     string          `json:"guest_name,omitempty"`
	Items         []OrderItemData `json:"items"`
	TotalAmount   int64           `json:"total_amount"`
	Status        string          `json:"status"`
}

// OrderItemData is the event payload for one order line.
type OrderItemData struct {
	GiftID     string `json:"gift_id"`
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
	LineTotal  int64  `json:"line_total"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	EventID   string `json:"event_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// Producer publishes registry domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the registry service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event with the full order
// snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			GiftID:     item.GiftID,
			Name:       item.Name,
			UnitAmount: item.UnitAmount,
			Quantity:   item.Quantity,
			LineTotal:  item.LineTotal,
		}
	}

	data := OrderCreatedData{
		ID:            order.ID,
		EventID:       order.EventID,
		ReferenceCode: order.ReferenceCode,
		GuestName:     order.GuestName,
		Items:         items,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, aggregateTypeOrder, sourceRegistry, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("event_id", order.EventID),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus string) error {
	data := OrderStatusChangedData{
		OrderID:   order.ID,
		EventID:   order.EventID,
		OldStatus: oldStatus,
		NewStatus: order.Status,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, order.ID, aggregateTypeOrder, sourceRegistry, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", order.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", order.Status),
	)

	return nil
}
