package publisher

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
)

// LogPublisher writes events to the log. It stands in for the broker when
// Redis is not configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events []domain.Event) error {
	for _, event := range events {
		p.logger.Info("event",
			zap.String("id", event.ID),
			zap.String("name", event.Name),
			zap.String("aggregate_id", event.AggregateID),
			zap.ByteString("payload", event.Payload))
	}
	return nil
}
