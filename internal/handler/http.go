package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sokomart/grocery-api/internal/entities"
	"github.com/sokomart/grocery-api/internal/service"
	"github.com/sokomart/grocery-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// customerIDHeader carries the authenticated customer id. OAuth terminates
// at the gateway in front of this service.
const customerIDHeader = "X-Customer-ID"

type OrderService interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (entities.Order, error)
	GetOrder(ctx context.Context, customerID string, orderNumber string) (entities.Order, error)
	ListOrders(ctx context.Context, customerID string) ([]entities.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, status entities.OrderStatus) (entities.Order, error)
	UpdateShippingAddress(ctx context.Context, orderNumber string, address string) (entities.Order, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{order_number}", h.GetOrder)
		r.Patch("/{order_number}/status", h.UpdateStatus)
		r.Patch("/{order_number}/address", h.UpdateAddress)
	})
}

// PlaceOrder creates a new order.
// @Summary      Place an order
// @Description  Validates stock, creates the order with its items atomically and queues an SMS confirmation
// @Tags         orders
// @Param        X-Customer-ID  header  string            true  "Authenticated customer id"
// @Param        request        body    PlaceOrderRequest true  "Order request"
// @Success      201  {object}  Order
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      401  {object}  utils.ErrorResponse
// @Failure      404  {object}  utils.ErrorResponse
// @Failure      409  {object}  StockErrorResponse "Insufficient stock"
// @Router       /orders [post]
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.PlaceOrder(ctx, PlaceOrderRequestToInput(customerID, req))
	if err != nil {
		h.writePlaceOrderError(ctx, w, err)
		ordersPlacedFailed.Inc()
		return
	}

	ordersPlaced.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

func (h *HTTPHandler) writePlaceOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	var stockErr *entities.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		utils.WriteJSON(w, StockErrorToJSON(stockErr), http.StatusConflict)
	case errors.Is(err, entities.ErrMissingContactInfo),
		errors.Is(err, entities.ErrEmptyOrder),
		errors.Is(err, entities.ErrInvalidQuantity),
		errors.Is(err, entities.ErrDuplicateProduct),
		errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrCustomerNotFound):
		utils.WriteError(w, "customer not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "failed to place order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

// GetOrder returns one of the customer's orders.
// @Summary      Get order by number
// @Tags         orders
// @Param        X-Customer-ID  header  string  true  "Authenticated customer id"
// @Param        order_number   path    string  true  "Order number"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Router       /orders/{order_number} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	orderNumber := chi.URLParam(r, "order_number")

	order, err := h.svc.GetOrder(ctx, customerID, orderNumber)
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order", slog.Any("error", err), slog.String("order_number", orderNumber))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// ListOrders returns the customer's orders, newest first.
// @Summary      List orders
// @Tags         orders
// @Param        X-Customer-ID  header  string  true  "Authenticated customer id"
// @Success      200  {array}  Order
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.ListOrders(ctx, customerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderEntityToJSON(order))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

// UpdateStatus moves the order to a new status. Only an actual change of
// value triggers a notification.
// @Summary      Update order status
// @Tags         orders
// @Param        order_number  path  string               true  "Order number"
// @Param        request       body  UpdateStatusRequest  true  "New status"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      404  {object}  utils.ErrorResponse
// @Router       /orders/{order_number}/status [patch]
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderNumber := chi.URLParam(r, "order_number")

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.UpdateStatus(ctx, orderNumber, entities.OrderStatus(req.Status))
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, entities.ErrInvalidStatus) {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update status", slog.Any("error", err), slog.String("order_number", orderNumber))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateAddress edits the shipping address.
// @Summary      Update shipping address
// @Tags         orders
// @Param        order_number  path  string                true  "Order number"
// @Param        request       body  UpdateAddressRequest  true  "New address"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse
// @Router       /orders/{order_number}/address [patch]
func (h *HTTPHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderNumber := chi.URLParam(r, "order_number")

	var req UpdateAddressRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.UpdateShippingAddress(ctx, orderNumber, req.ShippingAddress)
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update address", slog.Any("error", err), slog.String("order_number", orderNumber))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(customerIDHeader)
	if err := h.validate.Var(id, "required,uuid4"); err != nil {
		utils.WriteError(w, "missing or invalid customer id", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}
