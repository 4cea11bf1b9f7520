package repository

import (
	"context"

	"github.com/fastygo/livechat/domain"
)

// EventRepository keeps the audit log of published events.
type EventRepository interface {
	Append(ctx context.Context, events ...domain.Event) error
	ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]domain.Event, error)
}
