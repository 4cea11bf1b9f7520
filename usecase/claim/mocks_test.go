package claim

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fastygo/livechat/domain"
)

// MockPublisher records every batch it is asked to publish.
type MockPublisher struct {
	mock.Mock
	mu      sync.Mutex
	batches [][]domain.Event
}

func (m *MockPublisher) Publish(ctx context.Context, events []domain.Event) error {
	m.mu.Lock()
	m.batches = append(m.batches, events)
	m.mu.Unlock()
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockPublisher) names() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, 0, len(m.batches))
	for _, batch := range m.batches {
		names := make([]string, 0, len(batch))
		for _, e := range batch {
			names = append(names, e.Name)
		}
		out = append(out, names)
	}
	return out
}

// fakeClock advances one second on every call.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}
