package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeOutbox struct {
	size, dead int
	err        error
}

func (f fakeOutbox) Size() (int, error)     { return f.size, f.err }
func (f fakeOutbox) DeadSize() (int, error) { return f.dead, f.err }

func TestMemoryBackendWithoutRedisIsOnline(t *testing.T) {
	m := New(nil, nil, fakeOutbox{size: 3, dead: 1}, 0, nil)
	m.Refresh()

	status := m.GetStatus()
	assert.Equal(t, StorageMemory, status.Storage)
	assert.True(t, status.Outbox)
	assert.Equal(t, 3, status.OutboxSize)
	assert.Equal(t, 1, status.OutboxDead)
	assert.True(t, m.IsOnline())
}

func TestOutboxFailureIsReported(t *testing.T) {
	m := New(nil, nil, fakeOutbox{err: errors.New("closed")}, 0, nil)
	m.Refresh()

	assert.False(t, m.GetStatus().Outbox)
}

func TestStopIsIdempotent(t *testing.T) {
	m := New(nil, nil, nil, 0, nil)
	m.Stop()
	m.Stop()
	assert.False(t, m.GetStatus().Outbox)
}
