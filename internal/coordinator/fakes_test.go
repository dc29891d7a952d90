package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
	"github.com/orderlab/order-service/internal/order/ports"
)

// memStore is an in-memory ports.OrderStore + outbox.Repository with the
// same transition semantics as the Postgres implementation.
type memStore struct {
	mu sync.Mutex

	nextID  int
	orders  map[int]domain.Order
	rows    []outbox.Record
	nextRow int64

	createErr error
	findErr   error
	markErr   error
	markCalls int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, nextRow: 1, orders: make(map[int]domain.Order)}
}

func (s *memStore) Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, []outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, nil, s.createErr
	}

	processed := false
	ord := domain.Order{
		OrderID:   s.nextID,
		Product:   draft.Product,
		Quantity:  draft.Quantity,
		Amount:    draft.Amount,
		Processed: &processed,
	}
	s.nextID++
	s.orders[ord.OrderID] = ord

	payload, _ := json.Marshal(ord)
	var recs []outbox.Record
	for _, channel := range outbox.Channels {
		rec := outbox.Record{
			ID:        s.nextRow,
			EventID:   fmt.Sprintf("evt-%d", s.nextRow),
			Channel:   channel,
			OrderID:   ord.OrderID,
			Payload:   payload,
			CreatedAt: time.Now(),
		}
		s.nextRow++
		s.rows = append(s.rows, rec)
		recs = append(recs, rec)
	}
	return &ord, recs, nil
}

func (s *memStore) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	ord, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &ord, nil
}

func (s *memStore) MarkProcessed(ctx context.Context, id int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.markErr != nil {
		return nil, s.markErr
	}
	ord, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if ord.Completed() {
		return &ord, nil
	}
	processed := true
	total := ord.ComputeTotal()
	ord.Processed = &processed
	ord.Total = &total
	s.orders[id] = ord
	return &ord, nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

func (s *memStore) FetchPending(ctx context.Context, limit int) ([]outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outbox.Record
	for _, rec := range s.rows {
		if rec.Pending() {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) MarkSent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.rows {
		if rec.ID == id && rec.Pending() {
			now := time.Now()
			s.rows[i].SentAt = &now
		}
	}
	return nil
}

func (s *memStore) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.rows {
		if rec.Pending() {
			n++
		}
	}
	return n
}

// fakePublisher implements ports.EventPublisher with per-channel failure
// injection and call recording.
type fakePublisher struct {
	mu sync.Mutex

	broadcastErr error
	eventBusErr  error

	broadcasts int
	events     int
}

func (p *fakePublisher) Publish(ctx context.Context, ord *domain.Order) ports.PublishResult {
	payload, _ := json.Marshal(ord)
	return ports.PublishResult{
		Broadcast: p.PublishChannel(ctx, outbox.ChannelBroadcast, payload),
		EventBus:  p.PublishChannel(ctx, outbox.ChannelEventBus, payload),
	}
}

func (p *fakePublisher) PublishChannel(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch channel {
	case outbox.ChannelBroadcast:
		if p.broadcastErr != nil {
			return p.broadcastErr
		}
		p.broadcasts++
	case outbox.ChannelEventBus:
		if p.eventBusErr != nil {
			return p.eventBusErr
		}
		p.events++
	default:
		return errors.New("unknown channel")
	}
	return nil
}

// fakeCache implements OrderCache with failure injection.
type fakeCache struct {
	mu sync.Mutex

	entries map[int]*domain.Order
	getErr  error
	putErr  error

	gets int
	puts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int]*domain.Order)}
}

func (c *fakeCache) Get(ctx context.Context, id int) (*domain.Order, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	ord, ok := c.entries[id]
	return ord, ok, nil
}

func (c *fakeCache) Put(ctx context.Context, ord *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[ord.OrderID] = ord
	return nil
}

// fakeConsumer implements ports.QueueConsumer serving one fixed batch.
type fakeConsumer struct {
	mu sync.Mutex

	batch  []ports.Message
	polls  int
	acked  []string
	ackErr error
}

func (c *fakeConsumer) Poll(ctx context.Context, max int, wait time.Duration) ([]ports.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if c.polls > 1 {
		return nil, nil
	}
	if len(c.batch) > max {
		return c.batch[:max], nil
	}
	return c.batch, nil
}

func (c *fakeConsumer) Acknowledge(ctx context.Context, ackToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ackErr != nil {
		return c.ackErr
	}
	c.acked = append(c.acked, ackToken)
	return nil
}
