// Package coordinator holds the order lifecycle orchestration: the creation
// path (validate, persist with outbox, publish), the update path (unwrap,
// locate, transition, acknowledge), and the background loops that drive them.
package coordinator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
	"github.com/orderlab/order-service/internal/order/ports"
	"github.com/orderlab/order-service/internal/pkg/metrics"
)

// OrderCache is the read-through cache slice the lifecycle uses. A cache
// error is never fatal; callers fall back to the store.
type OrderCache interface {
	Get(ctx context.Context, id int) (*domain.Order, bool, error)
	Put(ctx context.Context, ord *domain.Order) error
}

// Lifecycle coordinates order creation and update handling across the store,
// the publish sinks, and the outbox. It is the only component with business
// logic spanning the others.
type Lifecycle struct {
	store     ports.OrderStore
	publisher ports.EventPublisher
	outboxes  outbox.Repository
	orders    OrderCache       // nil means no cache configured
	metrics   *metrics.Metrics // nil-safe
}

func NewLifecycle(
	store ports.OrderStore,
	publisher ports.EventPublisher,
	outboxes outbox.Repository,
	orders OrderCache,
	m *metrics.Metrics,
) *Lifecycle {
	return &Lifecycle{
		store:     store,
		publisher: publisher,
		outboxes:  outboxes,
		orders:    orders,
		metrics:   m,
	}
}

// CreateOrder validates the draft, persists it together with its pending
// outbox rows, then immediately tries to drain those rows into the publish
// sinks. The order is persisted regardless of publish outcome; a sink
// failure is reported as *domain.PartialPublishError while the undelivered
// rows stay pending for the background relay.
func (l *Lifecycle) CreateOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	ord, pending, err := l.store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	l.metrics.OrderCreated()
	l.cachePut(ctx, ord)

	result := l.publisher.Publish(ctx, ord)
	for _, rec := range pending {
		if result.ChannelErr(rec.Channel) != nil {
			l.metrics.OutboxDelivery(rec.Channel, false)
			continue
		}
		l.metrics.OutboxDelivery(rec.Channel, true)
		if err := l.outboxes.MarkSent(ctx, rec.ID); err != nil {
			// Worst case the relay republishes; delivery is at-least-once.
			slog.WarnContext(ctx, "outbox settle failed", "outbox_id", rec.ID, "error", err)
		}
	}

	if !result.Ok() {
		slog.ErrorContext(ctx, "order persisted but publish failed",
			"order_id", ord.OrderID, "channels", result.FailedChannels())
		return ord, &domain.PartialPublishError{
			Order:    ord,
			Channels: result.FailedChannels(),
			Errs:     result.Errs(),
		}
	}

	slog.InfoContext(ctx, "order created", "order_id", ord.OrderID, "product", ord.Product)
	return ord, nil
}

// HandleUpdate processes one raw update message through decode, locate, and
// the guarded processed transition. The returned outcome tells the queue
// driver whether to acknowledge; errors accompany the outcome for logging
// but never abort sibling messages.
func (l *Lifecycle) HandleUpdate(ctx context.Context, body []byte) (Outcome, error) {
	env, err := domain.DecodeUpdateEnvelope(body)
	if err != nil {
		l.metrics.UpdateOutcome(OutcomeMalformed.String())
		return OutcomeMalformed, err
	}

	ord, err := l.store.MarkProcessed(ctx, env.Order.OrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		slog.WarnContext(ctx, "update references unknown order",
			"order_id", env.Order.OrderID, "shape", env.Shape.String())
		l.metrics.UpdateOutcome(OutcomeNotFound.String())
		return OutcomeNotFound, nil
	}
	if err != nil {
		l.metrics.UpdateOutcome(OutcomeRetryable.String())
		return OutcomeRetryable, err
	}

	l.cachePut(ctx, ord)

	l.metrics.UpdateOutcome(OutcomeProcessed.String())
	slog.InfoContext(ctx, "order processed",
		"order_id", ord.OrderID, "total", ord.Total, "shape", env.Shape.String())
	return OutcomeProcessed, nil
}

// GetOrder is a cache-then-store read. Cache failures degrade to the store.
func (l *Lifecycle) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	if ord, hit := l.cacheGet(ctx, id); hit {
		return ord, nil
	}

	ord, err := l.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cachePut(ctx, ord)
	return ord, nil
}

func (l *Lifecycle) cachePut(ctx context.Context, ord *domain.Order) {
	if l.orders == nil {
		return
	}
	if err := l.orders.Put(ctx, ord); err != nil {
		slog.WarnContext(ctx, "order cache write failed", "order_id", ord.OrderID, "error", err)
	}
}

func (l *Lifecycle) cacheGet(ctx context.Context, id int) (*domain.Order, bool) {
	if l.orders == nil {
		return nil, false
	}
	ord, hit, err := l.orders.Get(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "order cache read failed", "order_id", id, "error", err)
		return nil, false
	}
	return ord, hit
}
