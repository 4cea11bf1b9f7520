package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/livechat/internal/config"
)

func TestNewClient_RejectsMalformedURL(t *testing.T) {
	client, err := NewClient(context.Background(), config.RedisConfig{URL: "://not-a-url"}, nil)
	assert.Error(t, err)
	assert.Nil(t, client)
}
