package ports

import (
	"context"
	"time"
)

// Message is one work-queue delivery. AckToken is opaque; it identifies this
// delivery (not the message) when acknowledging.
type Message struct {
	Body     []byte
	AckToken string
}

// QueueConsumer is the port for the at-least-once work queue.
type QueueConsumer interface {
	// Poll performs a single long-poll cycle, blocking up to wait when the
	// queue is empty. max is capped at 10 by the underlying queue. Returns
	// zero or more messages.
	Poll(ctx context.Context, max int, wait time.Duration) ([]Message, error)

	// Acknowledge removes the delivery from the queue so it is not redelivered.
	// Call only after the message has been fully and successfully handled.
	Acknowledge(ctx context.Context, ackToken string) error
}
