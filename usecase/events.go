package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
	appLogger "github.com/fastygo/livechat/pkg/logger"
)

// EventPublisher delivers one ordered batch of events. Implementations must
// keep the order of the slice.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Clock supplies the time stamped on aggregates and events.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// EventEmitter turns domain events into envelopes and hands them to the
// publisher. It is called only after the aggregate has been saved.
type EventEmitter struct {
	publisher EventPublisher
	ids       domain.IDGenerator
	logger    *zap.Logger
}

func NewEventEmitter(publisher EventPublisher, ids domain.IDGenerator, logger *zap.Logger) *EventEmitter {
	if ids == nil {
		panic("usecase: nil id generator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{publisher: publisher, ids: ids, logger: logger}
}

// Emit publishes events in order. A publication failure is logged and
// returned; the state change it describes is already committed.
func (e *EventEmitter) Emit(ctx context.Context, events []domain.DomainEvent) error {
	if e == nil || e.publisher == nil || len(events) == 0 {
		return nil
	}

	var metadata map[string]string
	if reqID, ok := appLogger.RequestIDFromContext(ctx); ok {
		metadata = map[string]string{"request_id": reqID}
	}

	envelopes, err := domain.Envelopes(e.ids, events, metadata)
	if err != nil {
		return err
	}
	if err := e.publisher.Publish(ctx, envelopes); err != nil {
		appLogger.WithRequestID(ctx, e.logger).Error("failed to publish events",
			zap.String("aggregate_id", envelopes[0].AggregateID),
			zap.Int("count", len(envelopes)),
			zap.Error(err))
		return err
	}
	return nil
}
