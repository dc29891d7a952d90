package coordinator

// Outcome classifies the handling of one update message. It decides whether
// the delivery is acknowledged: acknowledging a message that was not durably
// handled loses it, and not acknowledging a handled one replays it — which
// is safe here, but wasteful.
type Outcome int

const (
	// OutcomeProcessed: the order was transitioned (or was already complete —
	// replay is a no-op). Acknowledge.
	OutcomeProcessed Outcome = iota

	// OutcomeNotFound: the message references an unknown order. Stale or
	// foreign; acknowledge so it does not block the queue.
	OutcomeNotFound

	// OutcomeMalformed: the envelope could not be decoded. Leave for the
	// queue's retry / dead-letter policy.
	OutcomeMalformed

	// OutcomeRetryable: a transient infrastructure failure. Leave for
	// redelivery after the visibility timeout.
	OutcomeRetryable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "retryable"
	}
}

// Ack reports whether the delivery should be removed from the queue.
func (o Outcome) Ack() bool {
	return o == OutcomeProcessed || o == OutcomeNotFound
}
