package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/internal/infrastructure/outbox"
	"github.com/fastygo/livechat/repository"
	"github.com/fastygo/livechat/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Transport is the broker side of event delivery.
type Transport interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// RelayConfig controls how frequently the outbox is drained.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention is how long dead-lettered batches are kept. Zero keeps them.
	Retention time.Duration
}

// OutboxRelay is the EventPublisher handed to the use cases. It delivers a
// batch to the audit log and the broker right away, or parks it in the outbox
// and relays it later on a cron schedule.
type OutboxRelay struct {
	store     *outbox.Store
	monitor   ConnectionHealth
	transport Transport
	audit     repository.EventRepository
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       RelayConfig
}

func NewOutboxRelay(
	store *outbox.Store,
	monitor ConnectionHealth,
	transport Transport,
	audit repository.EventRepository,
	logger *zap.Logger,
	cfg RelayConfig,
) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &OutboxRelay{
		store:     store,
		monitor:   monitor,
		transport: transport,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	if cfg.Retention > 0 {
		_, _ = r.cron.AddFunc("@every 1h", func() {
			if _, err := r.PurgeDead(time.Now()); err != nil {
				r.logger.Error("outbox dead-letter purge failed", zap.Error(err))
			}
		})
	}

	return r
}

var _ usecase.EventPublisher = (*OutboxRelay)(nil)

// Start launches the cron scheduler.
func (r *OutboxRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("outbox relay started")
}

// Stop gracefully stops the scheduler.
func (r *OutboxRelay) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("outbox relay stopped")
}

// Publish delivers immediately when nothing is waiting in the outbox;
// otherwise the batch queues behind the waiting ones so order is kept.
func (r *OutboxRelay) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	if r == nil || r.store == nil {
		return fmt.Errorf("outbox relay not configured")
	}

	pending, err := r.store.Size()
	if err != nil {
		return err
	}
	if pending == 0 && (r.monitor == nil || r.monitor.IsOnline()) {
		err := r.deliver(ctx, events)
		if err == nil {
			return nil
		}
		r.logger.Warn("immediate delivery failed, parking in outbox", zap.Error(err))
	}
	return r.store.Enqueue(outbox.NewEntry(events))
}

// Drain relays parked entries in order. It stops at the first failure so a
// later batch never overtakes an earlier one.
func (r *OutboxRelay) Drain(ctx context.Context) error {
	if r == nil || r.store == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	entries, err := r.store.Batch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := r.deliver(ctx, entry.Events); err != nil {
			r.logger.Error("failed to relay outbox entry",
				zap.String("entry_id", entry.ID),
				zap.String("aggregate_id", entry.AggregateID),
				zap.Error(err))

			if entry.Retries+1 >= r.cfg.MaxRetries {
				r.logger.Warn("dead-lettering outbox entry (max retries reached)", zap.String("entry_id", entry.ID))
				if err := r.store.Bury(entry); err != nil {
					r.logger.Error("failed to dead-letter outbox entry", zap.Error(err))
					return err
				}
				continue
			}
			if err := r.store.Retry(entry, err); err != nil {
				r.logger.Error("failed to record outbox retry", zap.Error(err))
			}
			return nil
		}

		if err := r.store.Remove(entry); err != nil {
			r.logger.Warn("failed to purge relayed outbox entry", zap.Error(err))
		}
	}
	return nil
}

// PurgeDead drops dead-lettered batches older than the retention window.
func (r *OutboxRelay) PurgeDead(now time.Time) (int, error) {
	if r == nil || r.store == nil || r.cfg.Retention <= 0 {
		return 0, nil
	}
	removed, err := r.store.Cleanup(now.Add(-r.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.logger.Info("purged dead-lettered outbox entries", zap.Int("removed", removed))
	}
	return removed, nil
}

// Size returns the number of parked batches.
func (r *OutboxRelay) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (r *OutboxRelay) deliver(ctx context.Context, events []domain.Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.audit != nil {
		if err := r.audit.Append(ctx, events...); err != nil {
			return fmt.Errorf("append audit log: %w", err)
		}
	}
	if r.transport != nil {
		if err := r.transport.Publish(ctx, events); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return nil
}
