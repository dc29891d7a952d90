package ports

import (
	"context"
	"fmt"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
)

// PublishResult carries the independent outcome of each publish channel.
// A failure on one channel never suppresses the attempt on the other.
type PublishResult struct {
	Broadcast error
	EventBus  error
}

func (r PublishResult) Ok() bool {
	return r.Broadcast == nil && r.EventBus == nil
}

// ChannelErr returns the outcome for a named outbox channel.
func (r PublishResult) ChannelErr(channel string) error {
	switch channel {
	case outbox.ChannelBroadcast:
		return r.Broadcast
	case outbox.ChannelEventBus:
		return r.EventBus
	default:
		return fmt.Errorf("unknown publish channel %q", channel)
	}
}

// FailedChannels lists the channels that did not accept the message.
func (r PublishResult) FailedChannels() []string {
	var failed []string
	if r.Broadcast != nil {
		failed = append(failed, outbox.ChannelBroadcast)
	}
	if r.EventBus != nil {
		failed = append(failed, outbox.ChannelEventBus)
	}
	return failed
}

// Errs returns the failure list in channel order.
func (r PublishResult) Errs() []error {
	var errs []error
	if r.Broadcast != nil {
		errs = append(errs, r.Broadcast)
	}
	if r.EventBus != nil {
		errs = append(errs, r.EventBus)
	}
	return errs
}

// EventPublisher fans an order event out to the broadcast topic and the
// structured event bus.
type EventPublisher interface {
	// Publish encodes the order once per channel and attempts both sinks
	// independently.
	Publish(ctx context.Context, order *domain.Order) PublishResult

	// PublishChannel delivers a pre-encoded payload to a single named
	// channel. Used by the outbox relay.
	PublishChannel(ctx context.Context, channel string, payload []byte) error
}
