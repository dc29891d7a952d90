package postgres

import (
	"context"
	"fmt"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
)

// FetchPending returns up to limit undelivered outbox rows, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]outbox.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, channel, order_id, payload, created_at, sent_at
		 FROM outbox
		 WHERE sent_at IS NULL
		 ORDER BY id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch pending outbox rows: %w", err)
	}
	defer rows.Close()

	var out []outbox.Record
	for rows.Next() {
		var rec outbox.Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Channel, &rec.OrderID,
			&rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("postgres: scan outbox row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkSent settles a delivered row. The sent_at IS NULL guard makes the call
// idempotent under relay races.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox SET sent_at = now() WHERE id = $1 AND sent_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark outbox row %d sent: %w", id, err)
	}
	return nil
}
