package memory

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/repository"
)

type EventRepository struct {
	mu     sync.RWMutex
	events []domain.Event
}

func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

var _ repository.EventRepository = (*EventRepository)(nil)

func (r *EventRepository) Append(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		if lo.ContainsBy(r.events, func(stored domain.Event) bool { return stored.ID == e.ID }) {
			continue
		}
		r.events = append(r.events, e)
	}
	return nil
}

func (r *EventRepository) ListByAggregate(_ context.Context, aggregateID string, limit int) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := lo.Filter(r.events, func(e domain.Event, _ int) bool { return e.AggregateID == aggregateID })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// All returns every stored event in append order.
func (r *EventRepository) All() []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Event(nil), r.events...)
}
