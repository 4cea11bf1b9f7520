package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/domain/claim"
	"github.com/fastygo/livechat/repository"
)

// ClaimRepository enforces one active claim per chat by checking and
// inserting under the same lock.
type ClaimRepository struct {
	mu     sync.Mutex
	claims map[string]claim.ComercialClaim
}

func NewClaimRepository() *ClaimRepository {
	return &ClaimRepository{claims: make(map[string]claim.ComercialClaim)}
}

var _ repository.ClaimRepository = (*ClaimRepository)(nil)

func (r *ClaimRepository) Save(_ context.Context, c claim.ComercialClaim) error {
	if c.ID() == "" {
		return domain.ErrInvalidPayload.Detail("claim without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.claims[c.ID()]; exists {
		return domain.ErrInvalidPayload.Detail("claim %s already stored", c.ID())
	}
	if c.IsActive() && r.activeForChatLocked(c.ChatID()) != nil {
		return domain.ErrChatAlreadyClaimed.Detail("chat %s", c.ChatID())
	}
	r.claims[c.ID()] = c
	return nil
}

func (r *ClaimRepository) Update(_ context.Context, c claim.ComercialClaim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.claims[c.ID()]; !ok {
		return domain.ErrClaimNotFound.Detail("claim %s", c.ID())
	}
	if c.IsActive() {
		if other := r.activeForChatLocked(c.ChatID()); other != nil && other.ID() != c.ID() {
			return domain.ErrChatAlreadyClaimed.Detail("chat %s", c.ChatID())
		}
	}
	r.claims[c.ID()] = c
	return nil
}

func (r *ClaimRepository) FindByID(_ context.Context, id string) (claim.ComercialClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.claims[id]
	if !ok {
		return claim.ComercialClaim{}, domain.ErrClaimNotFound.Detail("claim %s", id)
	}
	return c, nil
}

func (r *ClaimRepository) FindActiveClaimForChat(_ context.Context, chatID string) (*claim.ComercialClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeForChatLocked(chatID), nil
}

func (r *ClaimRepository) FindActiveClaimsByComercial(_ context.Context, comercialID string) ([]claim.ComercialClaim, error) {
	r.mu.Lock()
	active := lo.Filter(lo.Values(r.claims), func(c claim.ComercialClaim, _ int) bool {
		return c.IsActive() && c.ComercialID() == comercialID
	})
	r.mu.Unlock()

	sort.Slice(active, func(i, j int) bool { return active[i].ClaimedAt().Before(active[j].ClaimedAt()) })
	return active, nil
}

func (r *ClaimRepository) GetActiveChatIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	ids := lo.FilterMap(lo.Values(r.claims), func(c claim.ComercialClaim, _ int) (string, bool) {
		return c.ChatID(), c.IsActive()
	})
	r.mu.Unlock()

	sort.Strings(ids)
	return ids, nil
}

func (r *ClaimRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.claims[id]; !ok {
		return domain.ErrClaimNotFound.Detail("claim %s", id)
	}
	delete(r.claims, id)
	return nil
}

func (r *ClaimRepository) activeForChatLocked(chatID string) *claim.ComercialClaim {
	c, ok := lo.Find(lo.Values(r.claims), func(c claim.ComercialClaim) bool {
		return c.IsActive() && c.ChatID() == chatID
	})
	if !ok {
		return nil
	}
	return &c
}
