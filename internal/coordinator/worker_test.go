package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlab/order-service/internal/order/domain"
	"github.com/orderlab/order-service/internal/order/ports"
)

func updateBody(t *testing.T, ord *domain.Order) []byte {
	t.Helper()
	body, err := json.Marshal(ord)
	require.NoError(t, err)
	return body
}

func TestWorkerRunOnce(t *testing.T) {
	store := newMemStore()
	l := newTestLifecycle(store, &fakePublisher{})

	ord, err := l.CreateOrder(context.Background(), domain.OrderDraft{Product: "Widget", Quantity: 3, Amount: 10})
	require.NoError(t, err)

	consumer := &fakeConsumer{batch: []ports.Message{
		{Body: updateBody(t, ord), AckToken: "rcpt-1"},
	}}
	w := NewWorker(consumer, l)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Received)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, []string{"rcpt-1"}, consumer.acked)
}

// A malformed message in the middle of a batch must not prevent handling or
// acknowledging its siblings.
func TestWorkerBatchIsolation(t *testing.T) {
	store := newMemStore()
	l := newTestLifecycle(store, &fakePublisher{})

	first, err := l.CreateOrder(context.Background(), domain.OrderDraft{Product: "Widget", Quantity: 1, Amount: 2})
	require.NoError(t, err)
	second, err := l.CreateOrder(context.Background(), domain.OrderDraft{Product: "Gadget", Quantity: 2, Amount: 3})
	require.NoError(t, err)

	consumer := &fakeConsumer{batch: []ports.Message{
		{Body: updateBody(t, first), AckToken: "rcpt-1"},
		{Body: []byte(`definitely not json`), AckToken: "rcpt-2"},
		{Body: updateBody(t, second), AckToken: "rcpt-3"},
	}}
	w := NewWorker(consumer, l)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Received)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, []string{"rcpt-1", "rcpt-3"}, consumer.acked)

	for _, ord := range []*domain.Order{first, second} {
		stored, err := store.FindByID(context.Background(), ord.OrderID)
		require.NoError(t, err)
		assert.True(t, stored.Completed())
	}
}

func TestWorkerAcksNotFound(t *testing.T) {
	l := newTestLifecycle(newMemStore(), &fakePublisher{})
	consumer := &fakeConsumer{batch: []ports.Message{
		{Body: []byte(`{"OrderId":99999,"Product":"Ghost","Quantity":1,"Amount":1}`), AckToken: "rcpt-stale"},
	}}
	w := NewWorker(consumer, l)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.NotFound)
	assert.Equal(t, []string{"rcpt-stale"}, consumer.acked, "stale messages are acked away")
}

func TestWorkerLeavesRetryable(t *testing.T) {
	store := newMemStore()
	store.markErr = errors.New("store down")
	l := newTestLifecycle(store, &fakePublisher{})
	consumer := &fakeConsumer{batch: []ports.Message{
		{Body: []byte(`{"OrderId":1,"Product":"Widget","Quantity":1,"Amount":1}`), AckToken: "rcpt-1"},
	}}
	w := NewWorker(consumer, l)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Retryable)
	assert.Empty(t, consumer.acked, "unhandled messages must stay on the queue")
}

// An ack failure is tolerated: the transition is durable and idempotent, so
// the redelivery replays as a no-op.
func TestWorkerToleratesAckFailure(t *testing.T) {
	store := newMemStore()
	l := newTestLifecycle(store, &fakePublisher{})

	ord, err := l.CreateOrder(context.Background(), domain.OrderDraft{Product: "Widget", Quantity: 1, Amount: 1})
	require.NoError(t, err)

	consumer := &fakeConsumer{
		batch:  []ports.Message{{Body: updateBody(t, ord), AckToken: "rcpt-1"}},
		ackErr: errors.New("receipt expired"),
	}
	w := NewWorker(consumer, l)

	stats, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	stored, err := store.FindByID(context.Background(), ord.OrderID)
	require.NoError(t, err)
	assert.True(t, stored.Completed())
}
