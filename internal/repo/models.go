package repo

import (
	"time"

	"github.com/sokomart/grocery-api/internal/entities"

	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID         string          `db:"order_id"`
	OrderNumber     string          `db:"order_number"`
	CustomerID      string          `db:"customer_id"`
	Status          string          `db:"status"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	ShippingAddress string          `db:"shipping_address"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ItemID    string          `db:"item_id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
}

type Product struct {
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Slug      string          `db:"slug"`
	Price     decimal.Decimal `db:"price"`
	Stock     int             `db:"stock"`
	Available bool            `db:"available"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type Customer struct {
	CustomerID string    `db:"customer_id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Email      string    `db:"email"`
	Phone      string    `db:"phone"`
	Address    string    `db:"address"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:        i.ItemID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Price:     i.Price,
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:              o.OrderID,
		Number:          o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          entities.OrderStatus(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:        p.ProductID,
		Name:      p.Name,
		Slug:      p.Slug,
		Price:     p.Price,
		Stock:     p.Stock,
		Available: p.Available,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func CustomerToEntity(c Customer) entities.Customer {
	return entities.Customer{
		ID:        c.CustomerID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
