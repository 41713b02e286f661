package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sokomart/grocery-api/internal/config"
	"github.com/sokomart/grocery-api/internal/entities"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
)

type OrderReader interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
}

type CustomerReader interface {
	GetCustomerByID(ctx context.Context, customerID string) (entities.Customer, error)
}

// Worker consumes notification jobs and executes their bodies. Undecodable
// or invalid payloads go to the DLQ; business outcomes (order gone, no
// phone, gateway refusal) are reported as error results and committed.
type Worker struct {
	dlq       *kafka.Writer
	reader    *kafka.Reader
	logger    *slog.Logger
	validate  *validator.Validate
	orders    OrderReader
	customers CustomerReader
	sender    Sender
}

func NewWorker(logger *slog.Logger, cfg config.Kafka, orders OrderReader, customers CustomerReader, sender Sender) *Worker {
	return &Worker{
		logger: logger.With(slog.String("component", "notification_worker")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate:  validator.New(),
		orders:    orders,
		customers: customers,
		sender:    sender,
	}
}

func (w *Worker) Consume(ctx context.Context) {
	for {
		m, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			} else {
				w.logger.Error("failed to fetch message", slog.Any("error", err))
				continue
			}
		}

		if err := w.handleMessage(ctx, m); err != nil {
			w.logger.Error("failed to handle message", slog.Any("error", err))

			if err := w.writeToDLQ(ctx, m); err != nil {
				w.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				continue
			}
			jobsDLQ.Inc()
		}

		if err := w.reader.CommitMessages(ctx, m); err != nil {
			w.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, m kafka.Message) error {
	var job Job
	if err := json.Unmarshal(m.Value, &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if err := w.validate.Struct(job); err != nil {
		return fmt.Errorf("invalid job payload: %w", err)
	}

	var res Result
	switch job.Kind {
	case KindOrderConfirmation:
		res = w.SendOrderConfirmation(ctx, job.OrderID)
	case KindStatusUpdate:
		res = w.SendStatusUpdate(ctx, job.OrderID, job.Status)
	}

	if res.Status == "error" {
		jobsFailed.WithLabelValues(job.Kind).Inc()
		w.logger.Warn("notification job failed",
			slog.String("job_id", job.JobID),
			slog.String("kind", job.Kind),
			slog.String("order_id", job.OrderID),
			slog.String("message", res.Message),
		)
		return nil
	}

	jobsProcessed.WithLabelValues(job.Kind).Inc()
	w.logger.Debug("notification job processed",
		slog.String("job_id", job.JobID),
		slog.String("kind", job.Kind),
		slog.String("order_id", job.OrderID),
	)
	return nil
}

// SendOrderConfirmation is the confirmation job body.
func (w *Worker) SendOrderConfirmation(ctx context.Context, orderID string) Result {
	order, customer, res := w.lookup(ctx, orderID)
	if res != nil {
		return *res
	}

	message := confirmationMessage(customer.FirstName, order.Number)
	return w.deliver(ctx, customer.Phone, message)
}

// SendStatusUpdate is the status-update job body.
func (w *Worker) SendStatusUpdate(ctx context.Context, orderID string, status entities.OrderStatus) Result {
	order, customer, res := w.lookup(ctx, orderID)
	if res != nil {
		return *res
	}

	message := statusMessage(customer.FirstName, order.Number, status)
	return w.deliver(ctx, customer.Phone, message)
}

func (w *Worker) lookup(ctx context.Context, orderID string) (entities.Order, entities.Customer, *Result) {
	order, err := w.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, entities.ErrOrderNotFound) {
		// terminal business outcome, not an infrastructure failure
		res := errorResult(fmt.Sprintf("order %s not found", orderID))
		return entities.Order{}, entities.Customer{}, &res
	}
	if err != nil {
		res := errorResult(err.Error())
		return entities.Order{}, entities.Customer{}, &res
	}

	customer, err := w.customers.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		res := errorResult(err.Error())
		return entities.Order{}, entities.Customer{}, &res
	}
	if customer.Phone == "" {
		res := errorResult("no phone number available for customer")
		return entities.Order{}, entities.Customer{}, &res
	}

	return order, customer, nil
}

func (w *Worker) deliver(ctx context.Context, phone string, message string) Result {
	if err := w.sender.Send(ctx, phone, message); err != nil {
		return errorResult(err.Error())
	}
	smsSent.Inc()
	return successResult()
}

func (w *Worker) writeToDLQ(ctx context.Context, m kafka.Message) error {
	m.Topic = fmt.Sprintf("%s-dlq", m.Topic)
	return w.dlq.WriteMessages(ctx, m)
}

func (w *Worker) Close() error {
	if err := w.reader.Close(); err != nil {
		return err
	}
	return w.dlq.Close()
}
