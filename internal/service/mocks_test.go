package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
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

// --- Mock event publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus string) error {
	args := m.Called(ctx, order, oldStatus)
	return args.Error(0)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testGifts() []domain.Gift {
	five := 5
	return []domain.Gift{
		{
			ID:          "5f3c7a9e-0f59-4a9e-9d83-1b2c3d4e5f60",
			EventID:     "evt-1",
			Name:        "Jantar romântico",
			UnitAmount:  15000,
			MaxPerOrder: 4,
			Active:      true,
		},
		{
			ID:          "7b1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f",
			EventID:     "evt-1",
			Name:        "Taças de cristal",
			UnitAmount:  8000,
			MaxPerOrder: 2,
			TotalStock:  &five,
			Active:      true,
		},
	}
}

func testRegistryConfig() *domain.RegistryConfig {
	return &domain.RegistryConfig{
		EventID:       "evt-1",
		EventName:     "Casamento Ana & Bruno",
		PixKey:        "ana.bruno@banco.com",
		PixHolderName: "Ana Souza",
	}
}
