package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlab/order-service/internal/order/domain"
)

// createPending persists an order while both sinks are down, leaving two
// pending outbox rows behind.
func createPending(t *testing.T, store *memStore) {
	t.Helper()
	down := &fakePublisher{
		broadcastErr: errors.New("down"),
		eventBusErr:  errors.New("down"),
	}
	l := newTestLifecycle(store, down)
	_, err := l.CreateOrder(context.Background(), domain.OrderDraft{Product: "Widget", Quantity: 3, Amount: 10})
	var partial *domain.PartialPublishError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, 2, store.pendingCount())
}

func TestRelayDrainOnce(t *testing.T) {
	store := newMemStore()
	createPending(t, store)

	pub := &fakePublisher{}
	r := NewRelay(store, pub, nil)

	sent, err := r.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, 0, store.pendingCount())
	assert.Equal(t, 1, pub.broadcasts)
	assert.Equal(t, 1, pub.events)

	// Nothing left: the next drain is a no-op.
	sent, err = r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

// A row is settled only after its sink accepted it; failed rows stay pending
// and are retried on the next drain.
func TestRelayKeepsFailedRowsPending(t *testing.T) {
	store := newMemStore()
	createPending(t, store)

	pub := &fakePublisher{broadcastErr: errors.New("still down")}
	r := NewRelay(store, pub, nil)

	sent, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, store.pendingCount())

	// The channel recovers; the remaining row drains.
	pub.broadcastErr = nil
	sent, err = r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, store.pendingCount())
}
