package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OutboxStats is the part of the outbox store the monitor reads.
type OutboxStats interface {
	Size() (int, error)
	DeadSize() (int, error)
}

// Monitor periodically probes the external dependencies. A nil Postgres pool
// means the memory storage backend is in use and Postgres is not required.
type Monitor struct {
	pg      *pgxpool.Pool
	redis   *redislib.Client
	outbox  OutboxStats
	storage string

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(pg *pgxpool.Pool, redis *redislib.Client, outbox OutboxStats, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	storage := StoragePostgres
	if pg == nil {
		storage = StorageMemory
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		outbox:   outbox,
		storage:  storage,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether events can be delivered and stored right now.
// Dependencies that are not configured do not count.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pgOK := m.pg == nil || m.status.PostgreSQL
	redisOK := m.redis == nil || m.status.Redis
	return pgOK && redisOK
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every dependency once.
func (m *Monitor) Refresh() {
	outboxOK, size, dead := m.checkOutbox()
	status := Status{
		Storage:    m.storage,
		PostgreSQL: m.checkPostgres(),
		Redis:      m.checkRedis(),
		Outbox:     outboxOK,
		OutboxSize: size,
		OutboxDead: dead,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Redis != status.Redis || previous.PostgreSQL != status.PostgreSQL {
		m.logger.Info("dependency status changed",
			zap.Bool("postgresql", status.PostgreSQL),
			zap.Bool("redis", status.Redis))
	}
}

func (m *Monitor) checkPostgres() bool {
	if m.pg == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.pg.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}

func (m *Monitor) checkOutbox() (bool, int, int) {
	if m.outbox == nil {
		return false, 0, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size, 0
	}
	dead, err := m.outbox.DeadSize()
	if err != nil {
		m.logger.Warn("outbox dead-letter check failed", zap.Error(err))
		return false, size, 0
	}
	return true, size, dead
}
