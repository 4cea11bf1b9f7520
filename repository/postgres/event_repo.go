package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates the Postgres-backed audit log of domain events.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	const query = `
	INSERT INTO domain_events (id, aggregate_id, name, version, payload, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.AggregateID,
			event.Name,
			event.Version,
			[]byte(event.Payload),
			marshalMap(event.Metadata),
			nullTime(event.CreatedAt),
		)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *eventRepository) ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]domain.Event, error) {
	const query = `
	SELECT id, aggregate_id, name, version, payload, metadata, created_at
	FROM domain_events
	WHERE aggregate_id = $1
	ORDER BY created_at, id
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, aggregateID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event    domain.Event
			payload  []byte
			metadata []byte
		)
		if err := rows.Scan(&event.ID, &event.AggregateID, &event.Name, &event.Version, &payload, &metadata, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Payload = make([]byte, len(payload))
		copy(event.Payload, payload)
		if event.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("event %s: %w", event.ID, err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return metadata, nil
}
