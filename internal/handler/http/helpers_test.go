package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	"github.com/CodTeteu/luma-registry/internal/service"
	"github.com/CodTeteu/luma-registry/pkg/httputil"
)

const (
	testEventID = "550e8400-e29b-41d4-a716-446655440000"
	testGiftID  = "550e8400-e29b-41d4-a716-446655440020"
	testGift2ID = "550e8400-e29b-41d4-a716-446655440021"
	testOrderID = "550e8400-e29b-41d4-a716-446655440001"
)

// --- Mock repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order, idempotencyToken string) error {
	args := m.Called(ctx, order, idempotencyToken)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByReference(ctx context.Context, eventID, referenceCode string) (*domain.Order, error) {
	args := m.Called(ctx, eventID, referenceCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByToken(ctx context.Context, eventID, token string) (*domain.Order, error) {
	args := m.Called(ctx, eventID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) StatsByEvent(ctx context.Context, eventID string) (*domain.OrderStats, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderStats), args.Error(1)
}

func (m *mockOrderRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockGiftRepository struct {
	mock.Mock
}

func (m *mockGiftRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Gift, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Gift), args.Error(1)
}

func (m *mockGiftRepository) GetRegistryConfig(ctx context.Context, eventID string) (*domain.RegistryConfig, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryConfig), args.Error(1)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, eventID, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, eventID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	args := m.Called(ctx, cart, expectedVersion)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartRepository) Delete(ctx context.Context, eventID, sessionID string) error {
	args := m.Called(ctx, eventID, sessionID)
	return args.Error(0)
}

// stubPublisher discards domain events.
type stubPublisher struct{}

func (stubPublisher) PublishOrderCreated(context.Context, *domain.Order) error          { return nil }
func (stubPublisher) PublishOrderStatusChanged(context.Context, *domain.Order, string) error {
	return nil
}

// --- Test helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCatalog() []domain.Gift {
	return []domain.Gift{
		{
			ID:          testGiftID,
			EventID:     testEventID,
			Name:        "Jantar romântico",
			UnitAmount:  15000,
			MaxPerOrder: 4,
			Active:      true,
		},
		{
			ID:          testGift2ID,
			EventID:     testEventID,
			Name:        "Taças de cristal",
			UnitAmount:  8000,
			MaxPerOrder: 2,
			Active:      true,
		},
	}
}

func testConfig() *domain.RegistryConfig {
	return &domain.RegistryConfig{
		EventID:       testEventID,
		EventName:     "Casamento Ana & Bruno",
		PixKey:        "ana.bruno@banco.com",
		PixHolderName: "Ana Souza",
	}
}

func testStoredOrder() *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:            testOrderID,
		EventID:       testEventID,
		ReferenceCode: "AB23CD45",
		GuestName:     "Carla Lima",
		Items: []domain.OrderItem{
			{ID: "item-1", OrderID: testOrderID, GiftID: testGiftID, Name: "Jantar romântico", UnitAmount: 15000, Quantity: 2, LineTotal: 30000},
		},
		TotalAmount: 30000,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// setupRouter builds a chi router matching the production route layout for
// the given handlers.
func setupRouter(orders *mockOrderRepository, gifts *mockGiftRepository, carts *mockCartRepository) *chi.Mux {
	logger := testLogger()

	cartService := service.NewCartService(carts, gifts, logger, time.Hour)
	checkoutService := service.NewCheckoutService(orders, gifts, stubPublisher{}, logger)
	orderService := service.NewOrderService(orders, stubPublisher{}, logger)
	statsService := service.NewStatsService(orders, logger)

	giftHandler := NewGiftHandler(gifts, logger)
	cartHandler := NewCartHandler(cartService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, cartService, logger)
	orderHandler := NewOrderHandler(orderService, statsService, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/gifts", giftHandler.ListGifts)

			r.Group(func(r chi.Router) {
				r.Use(SessionID)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartHandler.GetCart)
					r.Delete("/", cartHandler.ClearCart)
					r.Post("/items", cartHandler.AddGift)
					r.Put("/items/{giftID}", cartHandler.UpdateQuantity)
					r.Delete("/items/{giftID}", cartHandler.RemoveGift)
				})

				r.Post("/checkout", checkoutHandler.Checkout)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListOrders)
				r.Get("/stats", orderHandler.GetStats)
				r.Get("/reference/{code}", orderHandler.GetOrderByReference)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{id}", orderHandler.GetOrder)
			r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
		})
	})
	return r
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}
