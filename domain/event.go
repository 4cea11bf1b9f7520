package domain

import (
	"encoding/json"
	"time"
)

// DomainEvent is an immutable fact produced by an aggregate operation.
// Operations return events next to the new aggregate value; callers
// publish them only after the aggregate has been persisted.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Event is the serialized envelope of a DomainEvent as it is stored and published.
type Event struct {
	ID          string            `json:"id"`
	AggregateID string            `json:"aggregate_id"`
	Name        string            `json:"name"`
	Version     int               `json:"version"`
	Payload     json.RawMessage   `json:"payload"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// EnvelopeVersion is bumped when event payload shapes change incompatibly.
const EnvelopeVersion = 1

// NewEnvelope marshals a domain event into an Event with the given ID.
func NewEnvelope(id string, evt DomainEvent, metadata map[string]string) (Event, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Event{}, WrapError(ErrCodeInternal, KindInvalidPayload, "marshal event "+evt.EventName(), err)
	}
	return Event{
		ID:          id,
		AggregateID: evt.AggregateID(),
		Name:        evt.EventName(),
		Version:     EnvelopeVersion,
		Payload:     payload,
		Metadata:    metadata,
		CreatedAt:   evt.OccurredAt(),
	}, nil
}

// Envelopes converts a batch of domain events preserving their order.
func Envelopes(ids IDGenerator, events []DomainEvent, metadata map[string]string) ([]Event, error) {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		env, err := NewEnvelope(ids.NewID(), evt, metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}
