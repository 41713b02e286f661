package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sokomart/grocery-api/internal/config"
	"github.com/sokomart/grocery-api/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderReader struct {
	orders map[string]entities.Order
}

func (f *fakeOrderReader) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

type fakeCustomerReader struct {
	customers map[string]entities.Customer
}

func (f *fakeCustomerReader) GetCustomerByID(_ context.Context, customerID string) (entities.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok {
		return entities.Customer{}, entities.ErrCustomerNotFound
	}
	return customer, nil
}

type fakeSender struct {
	sent []struct{ phone, message string }
	err  error
}

func (f *fakeSender) Send(_ context.Context, phone string, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, struct{ phone, message string }{phone, message})
	return nil
}

const (
	testOrderID    = "33333333-3333-4333-8333-333333333333"
	testCustomerID = "6f0d8e6a-9a3e-4c2b-8f1d-0f4f3b9a1c2d"
)

func newTestWorker(orders *fakeOrderReader, customers *fakeCustomerReader, sender *fakeSender) *Worker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(logger, config.Kafka{
		Brokers: []string{"localhost:9092"},
		GroupID: "test",
		Topic:   "notifications",
	}, orders, customers, sender)
}

func testFixtures(phone string) (*fakeOrderReader, *fakeCustomerReader) {
	orders := &fakeOrderReader{orders: map[string]entities.Order{
		testOrderID: {
			ID:         testOrderID,
			Number:     "ORD-3F9A1C",
			CustomerID: testCustomerID,
			Status:     entities.StatusPending,
		},
	}}
	customers := &fakeCustomerReader{customers: map[string]entities.Customer{
		testCustomerID: {
			ID:        testCustomerID,
			FirstName: "Wanjiru",
			Phone:     phone,
		},
	}}
	return orders, customers
}

func TestWorker_SendOrderConfirmation(t *testing.T) {
	t.Run("sends templated confirmation", func(t *testing.T) {
		orders, customers := testFixtures("+254722000000")
		sender := &fakeSender{}
		w := newTestWorker(orders, customers, sender)

		res := w.SendOrderConfirmation(context.Background(), testOrderID)

		assert.Equal(t, "success", res.Status)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "+254722000000", sender.sent[0].phone)
		assert.Equal(t, "Hi Wanjiru, order #ORD-3F9A1C confirmed. Thanks!", sender.sent[0].message)
	})

	t.Run("falls back to generic greeting", func(t *testing.T) {
		orders, customers := testFixtures("+254722000000")
		c := customers.customers[testCustomerID]
		c.FirstName = ""
		customers.customers[testCustomerID] = c
		sender := &fakeSender{}
		w := newTestWorker(orders, customers, sender)

		res := w.SendOrderConfirmation(context.Background(), testOrderID)

		assert.Equal(t, "success", res.Status)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Hi Customer, order #ORD-3F9A1C confirmed. Thanks!", sender.sent[0].message)
	})

	t.Run("missing order is a terminal result", func(t *testing.T) {
		orders, customers := testFixtures("+254722000000")
		sender := &fakeSender{}
		w := newTestWorker(orders, customers, sender)

		res := w.SendOrderConfirmation(context.Background(), "deadbeef-0000-4000-8000-000000000000")

		assert.Equal(t, "error", res.Status)
		assert.Contains(t, res.Message, "not found")
		assert.Empty(t, sender.sent)
	})

	t.Run("no phone number", func(t *testing.T) {
		orders, customers := testFixtures("")
		sender := &fakeSender{}
		w := newTestWorker(orders, customers, sender)

		res := w.SendOrderConfirmation(context.Background(), testOrderID)

		assert.Equal(t, "error", res.Status)
		assert.Equal(t, "no phone number available for customer", res.Message)
		assert.Empty(t, sender.sent)
	})

	t.Run("gateway fault becomes error result", func(t *testing.T) {
		orders, customers := testFixtures("+254722000000")
		sender := &fakeSender{err: errors.New("API Error")}
		w := newTestWorker(orders, customers, sender)

		res := w.SendOrderConfirmation(context.Background(), testOrderID)

		assert.Equal(t, "error", res.Status)
		assert.Contains(t, res.Message, "API Error")
	})
}

func TestWorker_SendStatusUpdate(t *testing.T) {
	testCases := []struct {
		status entities.OrderStatus
		want   string
	}{
		{entities.StatusProcessing, "Hi Wanjiru, order #ORD-3F9A1C processing."},
		{entities.StatusShipped, "Hi Wanjiru, order #ORD-3F9A1C shipped!"},
		{entities.StatusDelivered, "Hi Wanjiru, order #ORD-3F9A1C delivered!"},
		{entities.StatusCancelled, "Hi Wanjiru, order #ORD-3F9A1C cancelled."},
		{entities.OrderStatus("on_hold"), "Hi Wanjiru, order #ORD-3F9A1C: on_hold."},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			orders, customers := testFixtures("+254722000000")
			sender := &fakeSender{}
			w := newTestWorker(orders, customers, sender)

			res := w.SendStatusUpdate(context.Background(), testOrderID, tc.status)

			assert.Equal(t, "success", res.Status)
			require.Len(t, sender.sent, 1)
			assert.Equal(t, tc.want, sender.sent[0].message)
		})
	}

	t.Run("missing order is a terminal result", func(t *testing.T) {
		orders, customers := testFixtures("+254722000000")
		sender := &fakeSender{}
		w := newTestWorker(orders, customers, sender)

		res := w.SendStatusUpdate(context.Background(), "deadbeef-0000-4000-8000-000000000000", entities.StatusShipped)

		assert.Equal(t, "error", res.Status)
		assert.Contains(t, res.Message, "not found")
	})
}
