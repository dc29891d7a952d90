// Package outbox defines the domain types for the transactional outbox.
//
// An outbox row is written in the same transaction as the order it
// announces, then drained into the publish sinks by a relay loop. This turns
// the store-then-publish pair into one atomic local commit plus an
// at-least-once relay: a crash between the two can no longer produce an
// order with no notification.
package outbox

import (
	"encoding/json"
	"time"
)

// Channel names. One row is written per channel so each sink's delivery is
// tracked (and retried) independently.
const (
	ChannelBroadcast = "broadcast"
	ChannelEventBus  = "eventbus"
)

// Channels lists every publish channel in delivery order.
var Channels = []string{ChannelBroadcast, ChannelEventBus}

// Record is a single row in the outbox table.
type Record struct {
	// ID is the surrogate primary key, assigned by the store.
	ID int64

	// EventID is a globally unique identifier for this delivery, carried so
	// downstream consumers can deduplicate.
	EventID string

	// Channel names the sink this row is destined for.
	Channel string

	// OrderID joins the row back to business data.
	OrderID int

	// Payload is the order serialized once at commit time. Relayed verbatim
	// so a redelivery is byte-identical to the first attempt.
	Payload json.RawMessage

	CreatedAt time.Time

	// SentAt is nil while the row is pending.
	SentAt *time.Time
}

// Pending reports whether the row still awaits delivery.
func (r Record) Pending() bool { return r.SentAt == nil }
