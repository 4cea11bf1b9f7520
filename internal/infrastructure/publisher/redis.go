// Package publisher broadcasts domain events to subscribers outside the process.
package publisher

import (
	"context"
	"encoding/json"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
)

const defaultChannelPrefix = "livechat.events"

// RedisPublisher sends each event as JSON to "<prefix>.<event name>". A batch
// is written in one MULTI/EXEC so subscribers see it in order.
type RedisPublisher struct {
	client *redislib.Client
	prefix string
	logger *zap.Logger
}

func NewRedisPublisher(client *redislib.Client, prefix string, logger *zap.Logger) *RedisPublisher {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, prefix: prefix, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	pipe := p.client.TxPipeline()
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.Channel(event.Name), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	p.logger.Debug("events published",
		zap.String("aggregate_id", events[0].AggregateID),
		zap.Int("count", len(events)))
	return nil
}

// Channel returns the Pub/Sub channel of an event name.
func (p *RedisPublisher) Channel(eventName string) string {
	return p.prefix + "." + eventName
}
