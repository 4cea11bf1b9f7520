package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/repository"
)

type PresenceRepository struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	online map[string]map[string]repository.OnlineCommercial
}

// NewPresenceRepository keeps heartbeats in process. now may be nil.
func NewPresenceRepository(ttl time.Duration, now func() time.Time) *PresenceRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &PresenceRepository{
		ttl:    ttl,
		now:    now,
		online: make(map[string]map[string]repository.OnlineCommercial),
	}
}

var _ repository.PresenceRepository = (*PresenceRepository)(nil)

func (r *PresenceRepository) SetOnline(_ context.Context, companyID string, commercial repository.OnlineCommercial) error {
	if companyID == "" || commercial.ID == "" {
		return domain.ErrInvalidPayload.Detail("presence requires company and commercial ids")
	}
	if commercial.LastSeen.IsZero() {
		commercial.LastSeen = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.online[companyID] == nil {
		r.online[companyID] = make(map[string]repository.OnlineCommercial)
	}
	r.online[companyID][commercial.ID] = commercial
	return nil
}

func (r *PresenceRepository) SetOffline(_ context.Context, companyID, commercialID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online[companyID], commercialID)
	return nil
}

func (r *PresenceRepository) OnlineCommercials(_ context.Context, companyID string) ([]repository.OnlineCommercial, error) {
	threshold := r.now().Add(-r.ttl)

	r.mu.Lock()
	var out []repository.OnlineCommercial
	for _, c := range r.online[companyID] {
		if !c.LastSeen.Before(threshold) {
			out = append(out, c)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.Before(out[j].LastSeen)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PresenceRepository) Sweep(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, company := range r.online {
		for id, c := range company {
			if c.LastSeen.Before(before) {
				delete(company, id)
				removed++
			}
		}
	}
	return removed, nil
}
