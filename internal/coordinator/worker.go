package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/orderlab/order-service/internal/order/ports"
)

const (
	defaultMaxMessages   = 10
	defaultPollWait      = 20 * time.Second
	defaultHandleTimeout = 30 * time.Second
)

// CycleStats summarises one poll-and-handle cycle.
type CycleStats struct {
	Received  int `json:"received"`
	Processed int `json:"processed"`
	NotFound  int `json:"not_found"`
	Malformed int `json:"malformed"`
	Retryable int `json:"retryable"`
}

func (s *CycleStats) count(o Outcome) {
	switch o {
	case OutcomeProcessed:
		s.Processed++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeMalformed:
		s.Malformed++
	default:
		s.Retryable++
	}
}

// Worker drives the queue consumer: long-poll, hand each message to the
// lifecycle, acknowledge per the outcome. Messages in a batch are isolated
// from each other — one failure never blocks the rest.
type Worker struct {
	consumer  ports.QueueConsumer
	lifecycle *Lifecycle

	MaxMessages   int
	PollWait      time.Duration
	HandleTimeout time.Duration
}

func NewWorker(consumer ports.QueueConsumer, lifecycle *Lifecycle) *Worker {
	return &Worker{
		consumer:      consumer,
		lifecycle:     lifecycle,
		MaxMessages:   defaultMaxMessages,
		PollWait:      defaultPollWait,
		HandleTimeout: defaultHandleTimeout,
	}
}

// Run loops poll cycles until ctx is cancelled. Poll errors are logged and
// retried after a short backoff; in-flight message handling always finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "queue poll failed", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// RunOnce performs a single poll cycle and handles every returned message
// independently, each under its own timeout.
func (w *Worker) RunOnce(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	msgs, err := w.consumer.Poll(ctx, w.MaxMessages, w.PollWait)
	if err != nil {
		return stats, err
	}
	stats.Received = len(msgs)

	for _, msg := range msgs {
		outcome := w.handle(ctx, msg)
		stats.count(outcome)
	}
	return stats, nil
}

func (w *Worker) handle(ctx context.Context, msg ports.Message) Outcome {
	// Keep finishing the in-flight message on shutdown: the ack must follow
	// a durable transition, so the handling context is detached from the
	// worker's cancellation and bounded by its own timeout instead.
	handleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.HandleTimeout)
	defer cancel()

	outcome, err := w.lifecycle.HandleUpdate(handleCtx, msg.Body)
	if err != nil {
		slog.ErrorContext(handleCtx, "update handling failed",
			"outcome", outcome.String(), "error", err)
	}

	if !outcome.Ack() {
		return outcome
	}
	if err := w.consumer.Acknowledge(handleCtx, msg.AckToken); err != nil {
		// The transition is durable and idempotent; redelivery replays as a
		// no-op and acks then.
		slog.WarnContext(handleCtx, "acknowledge failed, message will be redelivered",
			"error", err)
	}
	return outcome
}
