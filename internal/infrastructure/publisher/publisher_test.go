package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/livechat/domain"
)

func TestRedisPublisher_Channel(t *testing.T) {
	assert.Equal(t, "livechat.events.chat.created", NewRedisPublisher(nil, "", nil).Channel("chat.created"))
	assert.Equal(t, "acme.claim.released", NewRedisPublisher(nil, "acme", nil).Channel("claim.released"))
}

func TestRedisPublisher_EmptyBatchIsNoop(t *testing.T) {
	require.NoError(t, NewRedisPublisher(nil, "", nil).Publish(context.Background(), nil))
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	err := p.Publish(context.Background(), []domain.Event{
		{ID: "e1", Name: "chat.created", AggregateID: "chat-1", Payload: []byte(`{}`)},
		{ID: "e2", Name: "claim.created", AggregateID: "chat-1", Payload: []byte(`{}`)},
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "chat.created", entries[0].ContextMap()["name"])
	assert.Equal(t, "claim.created", entries[1].ContextMap()["name"])
}
