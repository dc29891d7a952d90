package ports

import (
	"context"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
)

// OrderStore is the port for the durable order repository. It is the only
// place order state is mutated.
type OrderStore interface {
	// Create assigns an identity and persists the draft with Processed=false
	// and Total=NULL. The order row and its pending outbox rows are written
	// in one transaction; the rows are returned so the caller can attempt an
	// immediate drain.
	Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, []outbox.Record, error)

	// FindByID reads by primary key. Returns domain.ErrOrderNotFound when no
	// row matches.
	FindByID(ctx context.Context, id int) (*domain.Order, error)

	// MarkProcessed performs the single guarded Created -> Completed
	// transition: total is recomputed from the stored quantity and amount,
	// never from caller input. Replay against a completed order returns the
	// existing row unchanged. Returns domain.ErrOrderNotFound when no row
	// matches; callers treat that as a no-op, not a failure.
	MarkProcessed(ctx context.Context, id int) (*domain.Order, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}
