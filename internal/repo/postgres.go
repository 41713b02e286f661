package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sokomart/grocery-api/internal/entities"
	"github.com/sokomart/grocery-api/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateOrder inserts the order header and all its items. Callers run it
// inside a transaction together with the stock decrements.
func (r *postgresRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns("order_id", "order_number", "customer_id", "status", "total_amount", "shipping_address").
		Values(o.ID, o.Number, o.CustomerID, string(o.Status), o.TotalAmount, o.ShippingAddress).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "orders_order_number_key" {
			return entities.ErrOrderNumberTaken
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("item_id", "order_id", "product_id", "quantity", "price")
	for _, it := range o.Items {
		q = q.Values(it.ID, o.ID, it.ProductID, it.Quantity, it.Price)
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return entities.ErrDuplicateProduct
		}
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"order_id": orderID})
}

func (r *postgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"order_number": orderNumber})
}

func (r *postgresRepo) getOrder(ctx context.Context, pred sq.Eq) (entities.Order, error) {
	query, args := r.qb.Select(
		"order_id", "order_number", "customer_id", "status",
		"total_amount", "shipping_address", "created_at", "updated_at").
		From("orders").
		Where(pred).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select("item_id", "order_id", "product_id", "quantity", "price").
		From("order_items").
		Where(sq.Eq{"order_id": order.OrderID}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

// GetOrderForUpdate loads the order header with a row lock, so the status
// read and the following write see a consistent value.
func (r *postgresRepo) GetOrderForUpdate(ctx context.Context, orderNumber string) (entities.Order, error) {
	query, args := r.qb.Select(
		"order_id", "order_number", "customer_id", "status",
		"total_amount", "shipping_address", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"order_number": orderNumber}).
		Suffix("FOR UPDATE").
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order for update: %w", err)
	}
	return OrderToEntity(order, nil), nil
}

func (r *postgresRepo) ListOrdersByCustomer(ctx context.Context, customerID string) ([]entities.Order, error) {
	query, args := r.qb.Select(
		"order_id", "order_number", "customer_id", "status",
		"total_amount", "shipping_address", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	return r.attachItems(ctx, orders)
}

// LatestOrders feeds the cache warm-up on startup.
func (r *postgresRepo) LatestOrders(ctx context.Context, count int) ([]entities.Order, error) {
	query, args := r.qb.Select(
		"order_id", "order_number", "customer_id", "status",
		"total_amount", "shipping_address", "created_at", "updated_at").
		From("orders").
		OrderBy("created_at DESC").
		Limit(uint64(count)).
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	return r.attachItems(ctx, orders)
}

func (r *postgresRepo) attachItems(ctx context.Context, orders []Order) ([]entities.Order, error) {
	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.OrderID
	}

	query, args := r.qb.Select("item_id", "order_id", "product_id", "quantity", "price").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[string][]OrderItem, len(ids))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, itemsMap[order.OrderID]))
	}
	return result, nil
}

func (r *postgresRepo) UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateShippingAddress(ctx context.Context, orderID string, address string) error {
	query, args := r.qb.Update("orders").
		Set("shipping_address", address).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update shipping address: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

// ProductsForUpdate locks the product rows for the rest of the transaction,
// serializing concurrent stock checks against the same products.
func (r *postgresRepo) ProductsForUpdate(ctx context.Context, productIDs []string) ([]entities.Product, error) {
	query, args := r.qb.Select(
		"product_id", "name", "slug", "price", "stock", "available", "created_at", "updated_at").
		From("products").
		Where(sq.Eq{"product_id": productIDs}).
		Suffix("FOR UPDATE").
		MustSql()

	var products []Product
	if err := r.selectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p))
	}
	return result, nil
}

func (r *postgresRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock - ?", quantity)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.And{
			sq.Eq{"product_id": productID},
			sq.GtOrEq{"stock": quantity},
		}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	// row is already locked, zero affected rows means an underflow attempt
	if affected == 0 {
		return fmt.Errorf("stock underflow for product %s", productID)
	}
	return nil
}

func (r *postgresRepo) GetCustomerByID(ctx context.Context, customerID string) (entities.Customer, error) {
	query, args := r.qb.Select(
		"customer_id", "first_name", "last_name", "email", "phone", "address", "created_at", "updated_at").
		From("customers").
		Where(sq.Eq{"customer_id": customerID}).
		MustSql()

	var customer Customer
	err := r.getContext(ctx, &customer, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Customer{}, entities.ErrCustomerNotFound
	}
	if err != nil {
		return entities.Customer{}, fmt.Errorf("failed to get customer: %w", err)
	}
	return CustomerToEntity(customer), nil
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
