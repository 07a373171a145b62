package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

const (
	// referenceAlphabet omits 0/O, 1/I/L so a guest can read the code over
	// the phone without ambiguity.
	referenceAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	referenceLength   = 8

	// maxReferenceAttempts bounds retries on reference code collisions. The
	// code space is 31^8; more than one collision in a row already signals
	// something else is wrong.
	maxReferenceAttempts = 5
)

// EventPublisher publishes order domain events. Publishing is best effort:
// the order is already committed when these are called.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus string) error
}

// CheckoutInput is the validated request to convert a set of gift lines into
// an order.
type CheckoutInput struct {
	EventID          string
	IdempotencyToken string
	GuestName        string
	GuestEmail       string
	Message          string
	Items            []CheckoutItemInput
}

// CheckoutItemInput is a single gift line of a checkout request.
type CheckoutItemInput struct {
	GiftID   string
	Quantity int
}

// PaymentInstructions tells the guest how to settle the order via PIX bank
// transfer. Settlement is confirmed manually by the host, never by the
// system.
type PaymentInstructions struct {
	Amount        int64  `json:"amount"`
	PixKey        string `json:"pix_key"`
	PixHolderName string `json:"pix_holder_name"`
	Memo          string `json:"memo"`
}

// CheckoutResult is the outcome of a successful (or idempotently replayed)
// checkout.
type CheckoutResult struct {
	Order   *domain.Order       `json:"order"`
	Payment PaymentInstructions `json:"payment"`

	// Replayed is true when the idempotency token matched an order created
	// by an earlier request, and that order was returned instead of a new one.
	Replayed bool `json:"-"`
}

// CheckoutService converts carts into orders. All pricing comes from the
// catalog as it is at checkout time; client-supplied amounts are never
// trusted.
type CheckoutService struct {
	orders    repository.OrderRepository
	gifts     repository.GiftRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(orders repository.OrderRepository, gifts repository.GiftRepository, publisher EventPublisher, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		gifts:     gifts,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout atomically creates an order from the given gift lines: the price
// snapshot, the stock reservations and the idempotency token commit in one
// transaction or not at all. Retrying with the same token returns the order
// the first attempt created.
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.EventID == "" {
		return nil, apperrors.InvalidInput("event id is required")
	}
	if input.IdempotencyToken == "" {
		return nil, apperrors.InvalidInput("idempotency token is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.EmptyCart()
	}

	cfg, err := s.gifts.GetRegistryConfig(ctx, input.EventID)
	if err != nil {
		return nil, fmt.Errorf("get registry config: %w", err)
	}

	// Replay check before doing any work. The transactional token insert
	// still catches the race where two requests pass this check together.
	if existing, err := s.orders.GetByToken(ctx, input.EventID, input.IdempotencyToken); err == nil {
		return s.replayResult(ctx, existing, cfg), nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check idempotency token: %w", err)
	}

	items, total, err := s.buildSnapshot(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:          uuid.New().String(),
		EventID:     input.EventID,
		GuestName:   input.GuestName,
		GuestEmail:  input.GuestEmail,
		Message:     input.Message,
		Items:       items,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := order.Validate(); err != nil {
		return nil, apperrors.Internal(err)
	}

	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		code, err := generateReferenceCode()
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("generate reference code: %w", err))
		}
		order.ReferenceCode = code

		err = s.orders.Create(ctx, order, input.IdempotencyToken)
		if err == nil {
			s.afterCreate(ctx, order)
			return &CheckoutResult{
				Order:   order,
				Payment: s.paymentInstructions(order, cfg),
			}, nil
		}

		switch {
		case errors.Is(err, repository.ErrReferenceCodeTaken):
			s.logger.WarnContext(ctx, "reference code collision, retrying",
				slog.String("event_id", input.EventID),
				slog.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, repository.ErrDuplicateToken):
			existing, getErr := s.orders.GetByToken(ctx, input.EventID, input.IdempotencyToken)
			if getErr != nil {
				return nil, fmt.Errorf("load order for duplicate token: %w", getErr)
			}
			return s.replayResult(ctx, existing, cfg), nil
		default:
			var stockErr *repository.StockError
			if errors.As(err, &stockErr) {
				return nil, apperrors.StockExhausted(stockErr.GiftID)
			}
			return nil, fmt.Errorf("create order: %w", err)
		}
	}

	return nil, apperrors.ReferenceCodeExhausted()
}

// buildSnapshot validates the requested lines against the current catalog and
// prices them. Unknown, inactive or duplicated gifts and out-of-range
// quantities are rejected.
func (s *CheckoutService) buildSnapshot(ctx context.Context, input CheckoutInput) ([]domain.OrderItem, int64, error) {
	gifts, err := s.gifts.ListByEvent(ctx, input.EventID)
	if err != nil {
		return nil, 0, fmt.Errorf("list gifts: %w", err)
	}
	byID := make(map[string]*domain.Gift, len(gifts))
	for i := range gifts {
		byID[gifts[i].ID] = &gifts[i]
	}

	seen := make(map[string]bool, len(input.Items))
	items := make([]domain.OrderItem, 0, len(input.Items))
	var total int64
	for _, line := range input.Items {
		if seen[line.GiftID] {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("gift %s appears more than once", line.GiftID))
		}
		seen[line.GiftID] = true

		gift, ok := byID[line.GiftID]
		if !ok {
			return nil, 0, apperrors.InvalidGift(line.GiftID)
		}
		if line.Quantity < domain.MinQuantityPerOrder || line.Quantity > gift.MaxQuantity() {
			return nil, 0, apperrors.InvalidQuantity(line.GiftID, line.Quantity, gift.MaxQuantity())
		}

		item := domain.OrderItem{
			ID:         uuid.New().String(),
			GiftID:     gift.ID,
			Name:       gift.Name,
			UnitAmount: gift.UnitAmount,
			Quantity:   line.Quantity,
		}
		item.LineTotal = item.ComputedLineTotal()
		items = append(items, item)
		total += item.LineTotal
	}

	return items, total, nil
}

// afterCreate runs the best-effort tail of a successful checkout: token
// housekeeping and the domain event. Neither failure undoes the order.
func (s *CheckoutService) afterCreate(ctx context.Context, order *domain.Order) {
	if n, err := s.orders.DeleteExpiredTokens(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clean expired checkout tokens", slog.String("error", err.Error()))
	} else if n > 0 {
		s.logger.DebugContext(ctx, "cleaned expired checkout tokens", slog.Int64("count", n))
	}

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("event_id", order.EventID),
		slog.String("reference_code", order.ReferenceCode),
		slog.Int64("total_amount", order.TotalAmount),
		slog.Int("items", len(order.Items)),
	)
}

func (s *CheckoutService) replayResult(ctx context.Context, order *domain.Order, cfg *domain.RegistryConfig) *CheckoutResult {
	s.logger.InfoContext(ctx, "checkout replayed from idempotency token",
		slog.String("order_id", order.ID),
		slog.String("event_id", order.EventID),
	)
	return &CheckoutResult{
		Order:    order,
		Payment:  s.paymentInstructions(order, cfg),
		Replayed: true,
	}
}

// paymentInstructions renders the PIX transfer details for an order. The memo
// carries the reference code so the host can match the bank transfer to the
// order by eye.
func (s *CheckoutService) paymentInstructions(order *domain.Order, cfg *domain.RegistryConfig) PaymentInstructions {
	guest := order.GuestName
	if guest == "" {
		guest = "Convidado"
	}
	return PaymentInstructions{
		Amount:        order.TotalAmount,
		PixKey:        cfg.PixKey,
		PixHolderName: cfg.PixHolderName,
		Memo:          fmt.Sprintf("Presente %s - %s", order.ReferenceCode, guest),
	}
}

// generateReferenceCode draws a short human-readable code from crypto/rand.
// Bytes at or above the largest multiple of the alphabet size are discarded
// so every character is equally likely.
func generateReferenceCode() (string, error) {
	const limit = 256 - 256%len(referenceAlphabet)

	code := make([]byte, 0, referenceLength)
	buf := make([]byte, referenceLength)
	for len(code) < referenceLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, referenceAlphabet[int(b)%len(referenceAlphabet)])
			if len(code) == referenceLength {
				break
			}
		}
	}
	return string(code), nil
}
