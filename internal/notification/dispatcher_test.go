package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokomart/grocery-api/internal/entities"
)

type fakeJobWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeJobWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeJobWriter) Close() error { return nil }

func testDispatcher(writer jobWriter) *Dispatcher {
	return &Dispatcher{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		writer: writer,
	}
}

func TestDispatcher_Enqueue(t *testing.T) {
	const orderID = "55555555-5555-4555-8555-555555555555"

	t.Run("publishes a confirmation job", func(t *testing.T) {
		writer := &fakeJobWriter{}
		d := testDispatcher(writer)

		before := testutil.ToFloat64(jobsEnqueued.WithLabelValues(KindOrderConfirmation))
		d.EnqueueOrderConfirmation(context.Background(), orderID)

		require.Len(t, writer.msgs, 1)
		assert.Equal(t, []byte(orderID), writer.msgs[0].Key)

		var job Job
		require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &job))
		assert.Equal(t, KindOrderConfirmation, job.Kind)
		assert.Equal(t, orderID, job.OrderID)
		assert.NotEmpty(t, job.JobID)

		after := testutil.ToFloat64(jobsEnqueued.WithLabelValues(KindOrderConfirmation))
		assert.Equal(t, before+1, after)
	})

	t.Run("publishes a status update job", func(t *testing.T) {
		writer := &fakeJobWriter{}
		d := testDispatcher(writer)

		d.EnqueueStatusUpdate(context.Background(), orderID, entities.StatusShipped)

		require.Len(t, writer.msgs, 1)
		var job Job
		require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &job))
		assert.Equal(t, KindStatusUpdate, job.Kind)
		assert.Equal(t, entities.StatusShipped, job.Status)
	})

	t.Run("failed write is not counted as enqueued", func(t *testing.T) {
		writer := &fakeJobWriter{err: errors.New("broker unavailable")}
		d := testDispatcher(writer)

		before := testutil.ToFloat64(jobsEnqueued.WithLabelValues(KindOrderConfirmation))
		d.EnqueueOrderConfirmation(context.Background(), orderID)
		after := testutil.ToFloat64(jobsEnqueued.WithLabelValues(KindOrderConfirmation))

		assert.Empty(t, writer.msgs)
		assert.Equal(t, before, after)
	})
}
