package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/domain/claim"
)

var claimedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestClaimRepository_SingleActiveClaimUnderConcurrency(t *testing.T) {
	req := require.New(t)
	repo := NewClaimRepository()
	ctx := context.Background()

	const workers = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _ := claim.Create(fmt.Sprintf("claim-%d", i), "chat-1", fmt.Sprintf("agent-%d", i), claimedAt)
			err := repo.Save(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case domain.KindOf(err) == domain.KindChatAlreadyClaimed:
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	req.Equal(1, accepted)
	req.Equal(workers-1, rejected)

	ids, err := repo.GetActiveChatIDs(ctx)
	req.NoError(err)
	req.Equal([]string{"chat-1"}, ids)
}

func TestClaimRepository_ReleaseFreesTheChat(t *testing.T) {
	req := require.New(t)
	repo := NewClaimRepository()
	ctx := context.Background()

	first, _ := claim.Create("claim-1", "chat-1", "agent-1", claimedAt)
	req.NoError(repo.Save(ctx, first))

	active, err := repo.FindActiveClaimForChat(ctx, "chat-1")
	req.NoError(err)
	req.NotNil(active)
	req.Equal("agent-1", active.ComercialID())

	released, _, err := first.ReleaseBy("agent-1", claimedAt.Add(time.Minute))
	req.NoError(err)
	req.NoError(repo.Update(ctx, released))

	active, err = repo.FindActiveClaimForChat(ctx, "chat-1")
	req.NoError(err)
	req.Nil(active)

	second, _ := claim.Create("claim-2", "chat-1", "agent-2", claimedAt.Add(2*time.Minute))
	req.NoError(repo.Save(ctx, second))

	byAgent, err := repo.FindActiveClaimsByComercial(ctx, "agent-2")
	req.NoError(err)
	req.Len(byAgent, 1)

	req.NoError(repo.Delete(ctx, "claim-2"))
	req.ErrorIs(repo.Delete(ctx, "claim-2"), domain.ErrClaimNotFound)
	_, err = repo.FindByID(ctx, "claim-2")
	req.ErrorIs(err, domain.ErrClaimNotFound)
}
