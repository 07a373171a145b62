package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CodTeteu/luma-registry/internal/domain"
	"github.com/CodTeteu/luma-registry/internal/repository"
	apperrors "github.com/CodTeteu/luma-registry/pkg/errors"
)

func TestGetOrderEndpoint(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, testOrderID).Return(testStoredOrder(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+testOrderID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, testOrderID, data["id"])
	assert.Equal(t, "AB23CD45", data["reference_code"])
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, testOrderID).Return(nil, apperrors.NotFound("order", testOrderID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+testOrderID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetOrderByReferenceEndpoint_UppercasesCode(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	orders.On("GetByReference", mock.Anything, testEventID, "AB23CD45").Return(testStoredOrder(), nil)

	// Guests type codes by hand; lowercase must still resolve.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/orders/reference/ab23cd45", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	orders.AssertExpectations(t)
}

func TestListOrdersEndpoint_StatusFilter(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	orders.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.EventID == testEventID && f.Status != nil && *f.Status == "confirmed" && f.Page == 2 && f.PerPage == 10
	})).Return([]domain.Order{*testStoredOrder()}, 11, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/orders?status=confirmed&page=2&per_page=10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []map[string]any `json:"data"`
		TotalCount int              `json:"total_count"`
		TotalPages int              `json:"total_pages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 11, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestListOrdersEndpoint_BadPageParam(t *testing.T) {
	router := setupRouter(new(mockOrderRepository), new(mockGiftRepository), new(mockCartRepository))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/orders?page=zero", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, testOrderID).Return(testStoredOrder(), nil)
	orders.On("UpdateStatus", mock.Anything, testOrderID, "confirmed").Return(nil)

	body, _ := json.Marshal(map[string]string{"status": "confirmed"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/"+testOrderID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "confirmed", data["status"])
	orders.AssertExpectations(t)
}

func TestUpdateOrderStatusEndpoint_UnknownStatus(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	body, _ := json.Marshal(map[string]string{"status": "shipped"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/"+testOrderID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsEndpoint(t *testing.T) {
	orders := new(mockOrderRepository)
	router := setupRouter(orders, new(mockGiftRepository), new(mockCartRepository))

	orders.On("StatsByEvent", mock.Anything, testEventID).Return(&domain.OrderStats{
		EventID:   testEventID,
		Pending:   domain.StatusBucket{Count: 2, TotalAmount: 15000},
		Confirmed: domain.StatusBucket{Count: 1, TotalAmount: 20000},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/orders/stats", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	pending := data["pending"].(map[string]any)
	assert.Equal(t, float64(2), pending["count"])
	assert.Equal(t, float64(15000), pending["total_amount"])
}

func TestGiftsEndpoint(t *testing.T) {
	gifts := new(mockGiftRepository)
	router := setupRouter(new(mockOrderRepository), gifts, new(mockCartRepository))

	gifts.On("ListByEvent", mock.Anything, testEventID).Return(testCatalog(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+testEventID+"/gifts", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	list := resp.Data.([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "Jantar romântico", first["name"])
	assert.Equal(t, float64(-1), first["available"])
}
