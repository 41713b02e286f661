package handler

import (
	"time"

	"github.com/sokomart/grocery-api/internal/entities"
	"github.com/sokomart/grocery-api/internal/service"

	"github.com/shopspring/decimal"
)

// PlaceOrderRequest is the body of POST /orders
type PlaceOrderRequest struct {
	ShippingAddress string            `json:"shipping_address" validate:"required"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// LineItemRequest is one (product, quantity) pair of an order request
type LineItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateStatusRequest is the body of PATCH /orders/{order_number}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// UpdateAddressRequest is the body of PATCH /orders/{order_number}/address
type UpdateAddressRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
}

// Order represents a placed order
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem is one line of a placed order
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// StockShortage names a product the catalog could not cover
type StockShortage struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockErrorResponse is returned with 409 Conflict on insufficient stock
type StockErrorResponse struct {
	Message   string          `json:"message"`
	Shortages []StockShortage `json:"shortages"`
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal(),
		})
	}

	return Order{
		ID:              o.ID,
		OrderNumber:     o.Number,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func PlaceOrderRequestToInput(customerID string, req PlaceOrderRequest) service.PlaceOrderInput {
	items := make([]service.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return service.PlaceOrderInput{
		CustomerID:      customerID,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}
}

func StockErrorToJSON(err *entities.InsufficientStockError) StockErrorResponse {
	shortages := make([]StockShortage, 0, len(err.Shortages))
	for _, s := range err.Shortages {
		shortages = append(shortages, StockShortage{
			ProductID: s.ProductID,
			Name:      s.Name,
			Requested: s.Requested,
			Available: s.Available,
		})
	}
	return StockErrorResponse{
		Message:   "insufficient stock",
		Shortages: shortages,
	}
}
