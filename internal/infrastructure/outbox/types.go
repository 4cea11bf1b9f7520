package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/livechat/domain"
)

// Entry is one batch of events produced by a single operation. The batch is
// relayed as a unit so its order is preserved.
type Entry struct {
	ID          string         `json:"id"`
	AggregateID string         `json:"aggregate_id"`
	Events      []domain.Event `json:"events"`
	Retries     int            `json:"retries"`
	LastError   string         `json:"last_error,omitempty"`
	EnqueuedAt  time.Time      `json:"enqueued_at"`

	key []byte
}

// NewEntry wraps events into an outbox entry.
func NewEntry(events []domain.Event) Entry {
	e := Entry{Events: events}
	if len(events) > 0 {
		e.AggregateID = events[0].AggregateID
	}
	return e
}

func (e *Entry) normalize(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = now
	}
}
