package outbox

import "context"

// Repository is the port for reading and settling outbox rows. Rows are
// inserted by the order store inside the creation transaction; this
// interface covers the drain side only.
type Repository interface {
	// FetchPending returns up to limit undelivered rows, oldest first.
	FetchPending(ctx context.Context, limit int) ([]Record, error)

	// MarkSent settles a row after its sink accepted the payload. Idempotent:
	// marking an already-sent row is a no-op.
	MarkSent(ctx context.Context, id int64) error
}
