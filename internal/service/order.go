package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sokomart/grocery-api/internal/entities"
	"github.com/sokomart/grocery-api/pkg/trm"
	"github.com/sokomart/grocery-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// orderNumberAttempts bounds the retry loop on order number collisions.
const orderNumberAttempts = 5

type OrderRepo interface {
	CreateOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error)
	GetOrderForUpdate(ctx context.Context, orderNumber string) (entities.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]entities.Order, error)
	LatestOrders(ctx context.Context, count int) ([]entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	UpdateShippingAddress(ctx context.Context, orderID string, address string) error
}

type CatalogRepo interface {
	ProductsForUpdate(ctx context.Context, productIDs []string) ([]entities.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

type CustomerRepo interface {
	GetCustomerByID(ctx context.Context, customerID string) (entities.Customer, error)
}

// Notifier enqueues asynchronous notification jobs. Enqueueing is
// best-effort by contract, implementations never return an error to the
// request path.
type Notifier interface {
	EnqueueOrderConfirmation(ctx context.Context, orderID string)
	EnqueueStatusUpdate(ctx context.Context, orderID string, status entities.OrderStatus)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type LineItem struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	CustomerID      string
	ShippingAddress string
	Items           []LineItem
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	catalog   CatalogRepo
	customers CustomerRepo
	notifier  Notifier
	cache     Cache
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	catalog CatalogRepo,
	customers CustomerRepo,
	notifier Notifier,
	cache Cache,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		catalog:   catalog,
		customers: customers,
		notifier:  notifier,
		cache:     cache,
	}
}

// PlaceOrder validates the request and materializes the order, its items
// and the stock decrements in one transaction. The confirmation job is
// enqueued only after the transaction committed.
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (entities.Order, error) {
	customer, err := s.customers.GetCustomerByID(ctx, in.CustomerID)
	if err != nil {
		return entities.Order{}, err
	}
	// contact info is checked before any catalog or order work
	if customer.Phone == "" {
		return entities.Order{}, entities.ErrMissingContactInfo
	}

	if err := validateLineItems(in.Items); err != nil {
		return entities.Order{}, err
	}

	var order entities.Order
	attempt := func() error {
		order = entities.Order{
			ID:              uuid.NewString(),
			Number:          NewOrderNumber(),
			CustomerID:      customer.ID,
			Status:          entities.StatusPending,
			ShippingAddress: in.ShippingAddress,
		}
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			return s.createOrder(ctx, &order, in.Items)
		})
	}

	for i := 0; i < orderNumberAttempts; i++ {
		err = attempt()
		if !errors.Is(err, entities.ErrOrderNumberTaken) {
			break
		}
	}
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_number", order.Number),
		slog.String("customer_id", customer.ID),
		slog.String("total_amount", order.TotalAmount.String()),
	)

	// best-effort, a lost notification never fails the placed order
	s.notifier.EnqueueOrderConfirmation(ctx, order.ID)

	return order, nil
}

// createOrder runs inside the transaction: lock product rows, check stock,
// capture prices, insert everything and decrement stock.
func (s *orderService) createOrder(ctx context.Context, order *entities.Order, items []LineItem) error {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.catalog.ProductsForUpdate(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[string]entities.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var shortages []entities.StockShortage
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", entities.ErrProductNotFound, item.ProductID)
		}
		if product.Stock < item.Quantity {
			shortages = append(shortages, entities.StockShortage{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: item.Quantity,
				Available: product.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &entities.InsufficientStockError{Shortages: shortages}
	}

	total := decimal.Zero
	order.Items = make([]entities.OrderItem, 0, len(items))
	for _, item := range items {
		product := byID[item.ProductID]
		order.Items = append(order.Items, entities.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	order.TotalAmount = total

	if err := s.orders.CreateOrder(ctx, *order); err != nil {
		return err
	}

	for _, item := range items {
		if err := s.catalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
	}
	return nil
}

// UpdateStatus writes the new status and enqueues a status-update job when
// the value actually changed. The previous value is read under a row lock
// in the same transaction, so repeated saves with the same status are
// idempotent with respect to notifications.
func (s *orderService) UpdateStatus(ctx context.Context, orderNumber string, status entities.OrderStatus) (entities.Order, error) {
	if !status.Valid() {
		return entities.Order{}, entities.ErrInvalidStatus
	}

	var order entities.Order
	var previous entities.OrderStatus

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetOrderForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		previous = order.Status
		if previous == status {
			return nil
		}
		return s.orders.UpdateOrderStatus(ctx, order.ID, status)
	})
	if err != nil {
		return entities.Order{}, err
	}

	order.Status = status
	s.cache.Delete(orderNumber)

	if previous != status {
		s.logger.InfoContext(ctx, "order status changed",
			slog.String("order_number", orderNumber),
			slog.String("from", string(previous)),
			slog.String("to", string(status)),
		)
		s.notifier.EnqueueStatusUpdate(ctx, order.ID, status)
	}

	return order, nil
}

// UpdateShippingAddress edits the address only, no notification fires.
func (s *orderService) UpdateShippingAddress(ctx context.Context, orderNumber string, address string) (entities.Order, error) {
	var order entities.Order

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetOrderForUpdate(ctx, orderNumber)
		if err != nil {
			return err
		}
		return s.orders.UpdateShippingAddress(ctx, order.ID, address)
	})
	if err != nil {
		return entities.Order{}, err
	}

	order.ShippingAddress = address
	s.cache.Delete(orderNumber)
	return order, nil
}

// GetOrder returns the customer's order by its number, cache first.
func (s *orderService) GetOrder(ctx context.Context, customerID string, orderNumber string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderNumber); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err != nil {
			s.logger.Error("failed to unmarshal cached order", slog.String("order_number", orderNumber), slog.Any("error", err))
			return entities.Order{}, err
		}
		if order.CustomerID != customerID {
			return entities.Order{}, entities.ErrOrderNotFound
		}
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.orders.GetOrderByNumber(ctx, orderNumber)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	s.cacheOrder(order)

	// ownership is part of the lookup contract, other customers see 404
	if order.CustomerID != customerID {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByID is the lookup the notification worker uses, no ownership
// filter and no cache.
func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return s.orders.GetOrderByID(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, customerID string) ([]entities.Order, error) {
	return s.orders.ListOrdersByCustomer(ctx, customerID)
}

// WarmUpCache preloads the most recent orders on startup.
func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	orders, err := s.orders.LatestOrders(ctx, count)
	if err != nil {
		return fmt.Errorf("failed to warm up cache: %w", err)
	}
	for _, order := range orders {
		s.cacheOrder(order)
	}
	s.logger.Info("cache warmed up", slog.Int("orders", len(orders)))
	return nil
}

func (s *orderService) cacheOrder(order entities.Order) {
	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.String("order_number", order.Number), slog.Any("error", err))
		return
	}
	s.cache.Set(order.Number, data)
}

func validateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return entities.ErrEmptyOrder
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return entities.ErrInvalidQuantity
		}
		if _, ok := seen[item.ProductID]; ok {
			return entities.ErrDuplicateProduct
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

// NewOrderNumber generates a short unique order token, e.g. ORD-3F9A1C.
// Global uniqueness is enforced by the orders.order_number constraint.
func NewOrderNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + hex[:6]
}
