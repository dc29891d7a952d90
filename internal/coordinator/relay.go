package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/ports"
	"github.com/orderlab/order-service/internal/pkg/metrics"
)

const (
	defaultRelayInterval = 2 * time.Second
	defaultRelayBatch    = 50
)

// Relay drains pending outbox rows into the publish sinks. It picks up
// whatever the synchronous attempt in CreateOrder could not deliver, giving
// the creation path its at-least-once guarantee.
type Relay struct {
	repo      outbox.Repository
	publisher ports.EventPublisher
	metrics   *metrics.Metrics

	Interval time.Duration
	Batch    int
}

func NewRelay(repo outbox.Repository, publisher ports.EventPublisher, m *metrics.Metrics) *Relay {
	return &Relay{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		Interval:  defaultRelayInterval,
		Batch:     defaultRelayBatch,
	}
}

// Run drains on an interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, r.Interval*10)
			if _, err := r.DrainOnce(tickCtx); err != nil {
				slog.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
			cancel()
		}
	}
}

// DrainOnce fetches one batch of pending rows and attempts each delivery
// independently. A row is marked sent only after its sink accepted the
// payload; failed rows stay pending for the next tick.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.FetchPending(ctx, r.Batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range rows {
		if err := r.publisher.PublishChannel(ctx, rec.Channel, rec.Payload); err != nil {
			r.metrics.OutboxDelivery(rec.Channel, false)
			slog.WarnContext(ctx, "outbox delivery failed",
				"outbox_id", rec.ID, "channel", rec.Channel, "order_id", rec.OrderID, "error", err)
			continue
		}
		r.metrics.OutboxDelivery(rec.Channel, true)
		if err := r.repo.MarkSent(ctx, rec.ID); err != nil {
			slog.WarnContext(ctx, "outbox settle failed", "outbox_id", rec.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
