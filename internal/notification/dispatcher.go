package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sokomart/grocery-api/internal/config"
	"github.com/sokomart/grocery-api/internal/entities"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type jobWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Dispatcher publishes notification jobs to the queue. Writes are async,
// the caller never blocks on the broker and never sees a broker error.
type Dispatcher struct {
	logger *slog.Logger
	writer jobWriter
}

func NewDispatcher(logger *slog.Logger, cfg config.Kafka) *Dispatcher {
	logger = logger.With(slog.String("component", "dispatcher"))

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to deliver notification job", slog.Any("error", err))
			}
		},
	}

	return &Dispatcher{logger: logger, writer: writer}
}

func (d *Dispatcher) EnqueueOrderConfirmation(ctx context.Context, orderID string) {
	d.enqueue(ctx, Job{
		JobID:   uuid.NewString(),
		Kind:    KindOrderConfirmation,
		OrderID: orderID,
	})
}

func (d *Dispatcher) EnqueueStatusUpdate(ctx context.Context, orderID string, status entities.OrderStatus) {
	d.enqueue(ctx, Job{
		JobID:   uuid.NewString(),
		Kind:    KindStatusUpdate,
		OrderID: orderID,
		Status:  status,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, job Job) {
	value, err := json.Marshal(job)
	if err != nil {
		d.logger.Error("failed to marshal notification job", slog.Any("error", err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(job.OrderID),
		Value: value,
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		// fire-and-forget: the order is already committed, only log
		d.logger.Error("failed to enqueue notification job",
			slog.String("kind", job.Kind),
			slog.String("order_id", job.OrderID),
			slog.Any("error", err),
		)
		return
	}
	jobsEnqueued.WithLabelValues(job.Kind).Inc()
}

func (d *Dispatcher) Close() error {
	return d.writer.Close()
}
