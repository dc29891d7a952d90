// Package postgres provides the pgx-backed implementation of the order store
// and the outbox repository.
//
// Both live on one Store because the creation path must write the order row
// and its outbox rows in a single transaction — the whole point of the
// outbox is that the commit is atomic.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
)

// schema is the DDL executed once on startup. Idempotent due to IF NOT EXISTS.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    -- Identity primary key, assigned on insert and immutable thereafter.
    orderid   INT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    product   TEXT NOT NULL,
    quantity  INT  NOT NULL,
    amount    INT  NOT NULL,
    -- Tri-state: NULL = outcome unknown, FALSE = pending, TRUE = completed.
    processed BOOLEAN,
    -- NULL until processed; then exactly quantity * amount.
    total     INT
);

CREATE TABLE IF NOT EXISTS outbox (
    id         BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    event_id   TEXT  NOT NULL,
    channel    TEXT  NOT NULL,
    order_id   INT   NOT NULL REFERENCES orders(orderid),
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    -- NULL while the row awaits delivery by the relay.
    sent_at    TIMESTAMPTZ
);

-- Partial index for the relay's hot query: pending rows, oldest first.
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (id) WHERE sent_at IS NULL;
`

const orderColumns = `orderid, product, quantity, amount, processed, total`

// Store implements ports.OrderStore and outbox.Repository on a shared pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres, verifies connectivity, and applies the schema.
//
//	store, err := postgres.Open(ctx, cfg.DatabaseURL)
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool. Call it with defer in main().
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies store connectivity. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Create inserts the order with Processed=FALSE and Total=NULL and writes
// one pending outbox row per publish channel, all in one transaction. The
// payload stored in each outbox row is the persisted order, serialized after
// the identity was assigned, so relayed notifications carry the real ID.
func (s *Store) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, []outbox.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	processed := false
	ord := domain.Order{
		Product:   draft.Product,
		Quantity:  draft.Quantity,
		Amount:    draft.Amount,
		Processed: &processed,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (product, quantity, amount, processed, total)
		 VALUES ($1, $2, $3, FALSE, NULL)
		 RETURNING orderid`,
		draft.Product, draft.Quantity, draft.Amount,
	).Scan(&ord.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: insert order: %w", err)
	}

	payload, err := json.Marshal(ord)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: encode outbox payload: %w", err)
	}

	records := make([]outbox.Record, 0, len(outbox.Channels))
	for _, channel := range outbox.Channels {
		rec := outbox.Record{
			EventID: uuid.NewString(),
			Channel: channel,
			OrderID: ord.OrderID,
			Payload: payload,
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO outbox (event_id, channel, order_id, payload)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			rec.EventID, rec.Channel, rec.OrderID, rec.Payload,
		).Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: insert outbox row (%s): %w", channel, err)
		}
		records = append(records, rec)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("postgres: commit create: %w", err)
	}
	return &ord, records, nil
}

// FindByID reads one order by primary key.
func (s *Store) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE orderid = $1`, id)
	ord, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find order %d: %w", id, err)
	}
	return ord, nil
}

// MarkProcessed is the guarded Created -> Completed transition. The total is
// recomputed inside the UPDATE from the stored quantity and amount, so a
// replayed or corrupted envelope can never overwrite pricing. The guard
// matches only rows not yet completed; a replay falls through to the read
// path and returns the existing row unchanged.
func (s *Store) MarkProcessed(ctx context.Context, id int) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE orders
		 SET processed = TRUE, total = quantity * amount
		 WHERE orderid = $1 AND NOT COALESCE(processed, FALSE)
		 RETURNING `+orderColumns, id)
	ord, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the order does not exist or it is already completed.
		// FindByID distinguishes the two; a completed row is returned as-is.
		return s.FindByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: mark order %d processed: %w", id, err)
	}
	return ord, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var ord domain.Order
	err := row.Scan(&ord.OrderID, &ord.Product, &ord.Quantity, &ord.Amount, &ord.Processed, &ord.Total)
	if err != nil {
		return nil, err
	}
	return &ord, nil
}
