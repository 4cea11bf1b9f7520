package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/repository"
)

// sweepAttempts bounds the optimistic retries of one company sweep.
const sweepAttempts = 3

// presenceRepository keeps one sorted set per company scored by the last
// heartbeat in unix milliseconds, plus a hash with display names.
type presenceRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewPresenceRepository creates a Redis-backed presence repository.
func NewPresenceRepository(client *redislib.Client, ttl time.Duration) repository.PresenceRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &presenceRepository{
		client: client,
		prefix: "presence:",
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *presenceRepository) SetOnline(ctx context.Context, companyID string, commercial repository.OnlineCommercial) error {
	if companyID == "" || commercial.ID == "" {
		return domain.ErrInvalidPayload.Detail("presence requires company and commercial ids")
	}
	seen := commercial.LastSeen
	if seen.IsZero() {
		seen = r.now()
	}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, r.onlineKey(companyID), redislib.Z{Score: float64(seen.UnixMilli()), Member: commercial.ID})
	pipe.HSet(ctx, r.namesKey(companyID), commercial.ID, commercial.Name)
	pipe.SAdd(ctx, r.companiesKey(), companyID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *presenceRepository) SetOffline(ctx context.Context, companyID, commercialID string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, r.onlineKey(companyID), commercialID)
	pipe.HDel(ctx, r.namesKey(companyID), commercialID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *presenceRepository) OnlineCommercials(ctx context.Context, companyID string) ([]repository.OnlineCommercial, error) {
	minScore := strconv.FormatInt(r.now().Add(-r.ttl).UnixMilli(), 10)
	entries, err := r.client.ZRangeByScoreWithScores(ctx, r.onlineKey(companyID), &redislib.ZRangeBy{
		Min: minScore,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := lo.Map(entries, func(z redislib.Z, _ int) string { return fmt.Sprint(z.Member) })
	names, err := r.client.HMGet(ctx, r.namesKey(companyID), ids...).Result()
	if err != nil {
		return nil, err
	}

	online := make([]repository.OnlineCommercial, 0, len(entries))
	for i, z := range entries {
		name, _ := names[i].(string)
		online = append(online, repository.OnlineCommercial{
			ID:       ids[i],
			Name:     name,
			LastSeen: time.UnixMilli(int64(z.Score)).UTC(),
		})
	}
	return online, nil
}

func (r *presenceRepository) Sweep(ctx context.Context, before time.Time) (int, error) {
	companies, err := r.client.SMembers(ctx, r.companiesKey()).Result()
	if err != nil {
		return 0, err
	}

	maxScore := "(" + strconv.FormatInt(before.UnixMilli(), 10)
	removed := 0
	for _, companyID := range companies {
		n, err := r.sweepCompany(ctx, companyID, maxScore)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// sweepCompany drops stale members and their names in one WATCH transaction,
// so a heartbeat landing mid-sweep aborts the removal instead of leaving a
// member without a name.
func (r *presenceRepository) sweepCompany(ctx context.Context, companyID, maxScore string) (int, error) {
	key := r.onlineKey(companyID)
	removed := 0
	txf := func(tx *redislib.Tx) error {
		removed = 0
		stale, err := tx.ZRangeByScore(ctx, key, &redislib.ZRangeBy{Min: "-inf", Max: maxScore}).Result()
		if err != nil || len(stale) == 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.ZRem(ctx, key, lo.ToAnySlice(stale)...)
			pipe.HDel(ctx, r.namesKey(companyID), stale...)
			return nil
		})
		if err == nil {
			removed = len(stale)
		}
		return err
	}

	for attempt := 0; attempt < sweepAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redislib.TxFailedErr) {
			return removed, err
		}
	}
	// still contended; the next sweep picks the members up
	return 0, nil
}

func (r *presenceRepository) onlineKey(companyID string) string {
	return fmt.Sprintf("%sonline:%s", r.prefix, companyID)
}

func (r *presenceRepository) namesKey(companyID string) string {
	return fmt.Sprintf("%snames:%s", r.prefix, companyID)
}

func (r *presenceRepository) companiesKey() string {
	return r.prefix + "companies"
}
