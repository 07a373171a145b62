package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CodTeteu/luma-registry/internal/domain"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

const testSessionID = "b6b8f7a0-9f1e-4a6f-8c5d-2e3f4a5b6c7d"

func cartRequest(method, path string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(HeaderSessionID, testSessionID)
	return req
}

func TestGetCartEndpoint_Empty(t *testing.T) {
	carts := new(mockCartRepository)
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), carts)

	carts.On("Get", mock.Anything, testEventID, testSessionID).Return(nil, apperrors.ErrNotFound)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/cart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, testSessionID, data["session_id"])
	assert.Empty(t, data["items"])
	assert.Equal(t, float64(0), data["version"])
}

func TestGetCartEndpoint_GeneratesSessionID(t *testing.T) {
	carts := new(mockCartRepository)
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), carts)

	carts.On("Get", mock.Anything, testEventID, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	echoed := rec.Header().Get(HeaderSessionID)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
}

func TestAddGiftEndpoint(t *testing.T) {
	carts := new(mockCartRepository)
	gifts := new(mockGiftRepository)
	router := setupRouter(new(mockOrderRepository), gifts, carts)

	gifts.On("ListByEvent", mock.Anything, testEventID).Return(testCatalog(), nil)
	carts.On("Get", mock.Anything, testEventID, testSessionID).Return(nil, apperrors.ErrNotFound)
	carts.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.Cart"), 0).Return(true, nil)

	body, _ := json.Marshal(map[string]any{"gift_id": testGiftID, "quantity": 2})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/events/"+testEventID+"/cart/items", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, testGiftID, item["gift_id"])
	assert.Equal(t, float64(2), item["quantity"])
	assert.Equal(t, float64(15000), item["unit_amount"])
}

func TestAddGiftEndpoint_ClampsToPerOrderMax(t *testing.T) {
	carts := new(mockCartRepository)
	gifts := new(mockGiftRepository)
	router := setupRouter(new(mockOrderRepository), gifts, carts)

	gifts.On("ListByEvent", mock.Anything, testEventID).Return(testCatalog(), nil)
	carts.On("Get", mock.Anything, testEventID, testSessionID).Return(nil, apperrors.ErrNotFound)
	carts.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.Cart"), 0).Return(true, nil)

	body, _ := json.Marshal(map[string]any{"gift_id": testGiftID, "quantity": 99})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/events/"+testEventID+"/cart/items", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	item := resp.Data.(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(4), item["quantity"])
}

func TestAddGiftEndpoint_UnknownGift(t *testing.T) {
	carts := new(mockCartRepository)
	gifts := new(mockGiftRepository)
	router := setupRouter(new(mockOrderRepository), gifts, carts)

	gifts.On("ListByEvent", mock.Anything, testEventID).Return(testCatalog(), nil)

	unknownID := "550e8400-e29b-41d4-a716-446655449999"
	body, _ := json.Marshal(map[string]any{"gift_id": unknownID, "quantity": 1})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/events/"+testEventID+"/cart/items", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_GIFT", resp.Error.Code)
	carts.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddGiftEndpoint_MissingQuantity(t *testing.T) {
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), new(mockCartRepository))

	body, _ := json.Marshal(map[string]any{"gift_id": testGiftID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodPost, "/api/v1/events/"+testEventID+"/cart/items", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestUpdateQuantityEndpoint(t *testing.T) {
	carts := new(mockCartRepository)
	gifts := new(mockGiftRepository)
	router := setupRouter(new(mockOrderRepository), gifts, carts)

	existing := &domain.Cart{
		EventID:   testEventID,
		SessionID: testSessionID,
		Items: []domain.CartItem{
			{GiftID: testGiftID, Name: "Jantar romântico", UnitAmount: 15000, Quantity: 1},
		},
		Version: 3,
	}
	gifts.On("ListByEvent", mock.Anything, testEventID).Return(testCatalog(), nil)
	carts.On("Get", mock.Anything, testEventID, testSessionID).Return(existing, nil)
	carts.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.Cart"), 3).Return(true, nil)

	body, _ := json.Marshal(map[string]any{"quantity": 3})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodPut, "/api/v1/events/"+testEventID+"/cart/items/"+testGiftID, body))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	item := resp.Data.(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(3), item["quantity"])
}

func TestUpdateQuantityEndpoint_ConcurrentModification(t *testing.T) {
	carts := new(mockCartRepository)
	gifts := new(mockGiftRepository)
	router := setupRouter(new(mockOrderRepository), gifts, carts)

	existing := &domain.Cart{
		EventID:   testEventID,
		SessionID: testSessionID,
		Items:     []domain.CartItem{{GiftID: testGiftID, Quantity: 1}},
		Version:   3,
	}
	gifts.On("ListByEvent", mock.Anything, testEventID).Return(testCatalog(), nil)
	carts.On("Get", mock.Anything, testEventID, testSessionID).Return(existing, nil)
	carts.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.Cart"), 3).Return(false, nil)

	body, _ := json.Marshal(map[string]any{"quantity": 2})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodPut, "/api/v1/events/"+testEventID+"/cart/items/"+testGiftID, body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestRemoveGiftEndpoint_NotInCart(t *testing.T) {
	carts := new(mockCartRepository)
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), carts)

	carts.On("Get", mock.Anything, testEventID, testSessionID).Return(nil, apperrors.ErrNotFound)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodDelete, "/api/v1/events/"+testEventID+"/cart/items/"+testGiftID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	carts.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestClearCartEndpoint(t *testing.T) {
	carts := new(mockCartRepository)
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), carts)

	carts.On("Delete", mock.Anything, testEventID, testSessionID).Return(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, cartRequest(http.MethodDelete, "/api/v1/events/"+testEventID+"/cart", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	carts.AssertExpectations(t)
}

func TestCartEndpoint_RejectsNonJSONContentType(t *testing.T) {
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), new(mockCartRepository))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/"+testEventID+"/cart/items", bytes.NewReader([]byte("gift_id=x")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderSessionID, testSessionID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", resp.Error.Code)
}
