package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/repository"
)

// PresenceSweeper drops commercials whose heartbeat is older than the TTL so
// auto-assignment never picks a disconnected agent.
type PresenceSweeper struct {
	presence repository.PresenceRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
	cron     *cron.Cron
}

func NewPresenceSweeper(presence repository.PresenceRepository, ttl, interval time.Duration, logger *zap.Logger) *PresenceSweeper {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if interval <= 0 {
		interval = ttl
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PresenceSweeper{
		presence: presence,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
	}
	_, _ = s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("presence sweep failed", zap.Error(err))
		}
	})
	return s
}

func (s *PresenceSweeper) Start() {
	s.cron.Start()
	s.logger.Info("presence sweeper started", zap.Duration("ttl", s.ttl))
}

func (s *PresenceSweeper) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// Sweep runs one pass and returns how many entries expired.
func (s *PresenceSweeper) Sweep(ctx context.Context) (int, error) {
	removed, err := s.presence.Sweep(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("expired presence entries removed", zap.Int("count", removed))
	}
	return removed, nil
}
