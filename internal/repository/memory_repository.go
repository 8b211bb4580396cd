package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/google/uuid"
)

// MemoryRepository keeps order history for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*domain.Order
	byUser  map[string][]uuid.UUID
	outbox  bool
	events  []*OutboxEvent
	eventID int64
}

type MemoryOption func(*MemoryRepository)

// WithOutbox records an outbox event for every created order. Without it no
// events are kept, since nothing would ever drain them.
func WithOutbox() MemoryOption {
	return func(r *MemoryRepository) {
		r.outbox = true
	}
}

func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		orders: make(map[uuid.UUID]*domain.Order),
		byUser: make(map[string][]uuid.UUID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	var payload []byte
	if r.outbox {
		var err error
		if payload, err = OrderPlacedPayload(order); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return ErrDuplicateOrder
	}
	r.orders[order.ID] = order.Clone()
	r.byUser[order.UserID] = append(r.byUser[order.UserID], order.ID)

	if r.outbox {
		r.eventID++
		r.events = append(r.events, &OutboxEvent{
			ID:          r.eventID,
			AggregateID: order.ID.String(),
			EventType:   EventOrderPlaced,
			Payload:     payload,
			CreatedAt:   time.Now().UTC(),
		})
	}
	return nil
}

func (r *MemoryRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (r *MemoryRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	orders := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, r.orders[id].Clone())
	}
	return orders, nil
}

func (r *MemoryRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*OutboxEvent
	for _, e := range r.events {
		if e.ProcessedAt != nil {
			continue
		}
		if limit > 0 && len(events) >= limit {
			break
		}
		c := *e
		events = append(events, &c)
	}
	return events, nil
}

// MarkEventAsProcessed drops the event; processed events are not kept in memory.
func (r *MemoryRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.events {
		if e.ID == id {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

func (r *MemoryRepository) Close() error {
	return nil
}
