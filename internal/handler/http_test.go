package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sokomart/grocery-api/internal/entities"
	"github.com/sokomart/grocery-api/internal/handler"
	"github.com/sokomart/grocery-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (entities.Order, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, customerID string, orderNumber string) (entities.Order, error) {
	args := m.Called(ctx, customerID, orderNumber)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context, customerID string) ([]entities.Order, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]entities.Order), args.Error(1)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderNumber string, status entities.OrderStatus) (entities.Order, error) {
	args := m.Called(ctx, orderNumber, status)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *mockOrderService) UpdateShippingAddress(ctx context.Context, orderNumber string, address string) (entities.Order, error) {
	args := m.Called(ctx, orderNumber, address)
	return args.Get(0).(entities.Order), args.Error(1)
}

const (
	customerID = "6f0d8e6a-9a3e-4c2b-8f1d-0f4f3b9a1c2d"
	productID  = "11111111-1111-4111-8111-111111111111"
)

func newTestRouter(svc *mockOrderService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc)
	r := chi.NewRouter()
	h.Init(r)
	return r
}

func TestHTTPHandler_PlaceOrder(t *testing.T) {
	placedOrder := entities.Order{
		ID:          "33333333-3333-4333-8333-333333333333",
		Number:      "ORD-3F9A1C",
		CustomerID:  customerID,
		Status:      entities.StatusPending,
		TotalAmount: decimal.RequireFromString("11.95"),
		Items: []entities.OrderItem{
			{ProductID: productID, Quantity: 2, Price: decimal.RequireFromString("2.99")},
		},
	}

	validBody := `{"shipping_address":"12 Riverside Dr, Nairobi","items":[{"product_id":"` + productID + `","quantity":2}]}`

	testCases := []struct {
		name         string
		customerID   string
		body         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name:       "created",
			customerID: customerID,
			body:       validBody,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("PlaceOrder", mock.Anything, mock.Anything).Return(placedOrder, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"order_number":"ORD-3F9A1C"`,
		},
		{
			name:         "missing customer header",
			customerID:   "",
			body:         validBody,
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusUnauthorized,
			wantBody:     `"missing or invalid customer id"`,
		},
		{
			name:         "empty items rejected by validation",
			customerID:   customerID,
			body:         `{"shipping_address":"12 Riverside Dr, Nairobi","items":[]}`,
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantBody:     `"invalid request"`,
		},
		{
			name:         "non-positive quantity rejected by validation",
			customerID:   customerID,
			body:         `{"shipping_address":"12 Riverside Dr, Nairobi","items":[{"product_id":"` + productID + `","quantity":0}]}`,
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantBody:     `"invalid request"`,
		},
		{
			name:       "insufficient stock",
			customerID: customerID,
			body:       validBody,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("PlaceOrder", mock.Anything, mock.Anything).Return(entities.Order{}, &entities.InsufficientStockError{
					Shortages: []entities.StockShortage{
						{ProductID: productID, Name: "Milk 500ml", Requested: 10, Available: 1},
					},
				}).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"available":1`,
		},
		{
			name:       "missing contact info",
			customerID: customerID,
			body:       validBody,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("PlaceOrder", mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.ErrMissingContactInfo).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"customer has no phone number"`,
		},
		{
			name:       "unknown customer",
			customerID: customerID,
			body:       validBody,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("PlaceOrder", mock.Anything, mock.Anything).
					Return(entities.Order{}, entities.ErrCustomerNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"customer not found"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrderService)
			tc.mockBehavior(svc)

			r := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))
			if tc.customerID != "" {
				req.Header.Set("X-Customer-ID", tc.customerID)
			}
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			res := rr.Result()
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)

			if tc.wantStatus == http.StatusCreated {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "pending", resp["status"])
				// decimal marshals as a quoted string
				assert.Equal(t, "11.95", resp["total_amount"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_GetOrder(t *testing.T) {
	order := entities.Order{
		ID:         "33333333-3333-4333-8333-333333333333",
		Number:     "ORD-3F9A1C",
		CustomerID: customerID,
		Status:     entities.StatusShipped,
	}

	testCases := []struct {
		name         string
		orderNumber  string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name:        "found",
			orderNumber: "ORD-3F9A1C",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetOrder", mock.Anything, customerID, "ORD-3F9A1C").Return(order, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"shipped"`,
		},
		{
			name:        "not found",
			orderNumber: "ORD-MISSIN",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetOrder", mock.Anything, customerID, "ORD-MISSIN").
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"order not found"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrderService)
			tc.mockBehavior(svc)

			r := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tc.orderNumber, nil)
			req.Header.Set("X-Customer-ID", customerID)
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			res := rr.Result()
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)
		})
	}
}

func TestHTTPHandler_UpdateStatus(t *testing.T) {
	updated := entities.Order{
		ID:         "33333333-3333-4333-8333-333333333333",
		Number:     "ORD-3F9A1C",
		CustomerID: customerID,
		Status:     entities.StatusShipped,
	}

	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "updated",
			body: `{"status":"shipped"}`,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("UpdateStatus", mock.Anything, "ORD-3F9A1C", entities.StatusShipped).
					Return(updated, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"shipped"`,
		},
		{
			name:         "unknown status value",
			body:         `{"status":"teleported"}`,
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusBadRequest,
			wantBody:     `"invalid request"`,
		},
		{
			name: "not found",
			body: `{"status":"shipped"}`,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("UpdateStatus", mock.Anything, "ORD-3F9A1C", entities.StatusShipped).
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"order not found"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrderService)
			tc.mockBehavior(svc)

			r := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPatch, "/orders/ORD-3F9A1C/status", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			res := rr.Result()
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	svc := new(mockOrderService)
	svc.On("ListOrders", mock.Anything, customerID).Return([]entities.Order{
		{Number: "ORD-3F9A1C", CustomerID: customerID, Status: entities.StatusPending},
		{Number: "ORD-77AB0D", CustomerID: customerID, Status: entities.StatusDelivered},
	}, nil).Once()

	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-Customer-ID", customerID)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	res := rr.Result()
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "ORD-3F9A1C")
	assert.Contains(t, string(body), "ORD-77AB0D")
}
