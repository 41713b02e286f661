package entities

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID        string
	Name      string
	Slug      string
	Price     decimal.Decimal
	Stock     int
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID              string
	Number          string
	CustomerID      string
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []OrderItem
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	// Price is captured at placement time, the catalog may change afterwards
	Price decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrMissingContactInfo = errors.New("customer has no phone number")
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrDuplicateProduct   = errors.New("order contains the same product twice")
	ErrInvalidQuantity    = errors.New("item quantity must be positive")
	ErrInvalidStatus      = errors.New("unknown order status")
	ErrOrderNumberTaken   = errors.New("order number already taken")
	ErrInvalidOrder       = errors.New("invalid order data")
)

// StockShortage describes a single line the catalog could not cover.
type StockShortage struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

// InsufficientStockError collects every shortage in the order at once,
// so the client can fix the whole request in one pass.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("not enough stock for %s, available: %d", s.Name, s.Available))
	}
	return strings.Join(parts, "; ")
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(o); err != nil {
		return ErrInvalidOrder
	}
	return nil
}

func init() {
	gob.Register(Order{})
	gob.Register(OrderItem{})
}
