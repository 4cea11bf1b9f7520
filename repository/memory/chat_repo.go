// Package memory provides in-process repository implementations used by the
// memory storage backend and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/domain/chat"
	"github.com/fastygo/livechat/repository"
)

const defaultLimit = 100

type ChatRepository struct {
	mu    sync.RWMutex
	chats map[string]chat.Primitives
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{chats: make(map[string]chat.Primitives)}
}

var _ repository.ChatRepository = (*ChatRepository)(nil)

func (r *ChatRepository) Save(_ context.Context, c chat.Chat) error {
	if c.ID() == "" {
		return domain.ErrInvalidPayload.Detail("chat without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[c.ID()] = c.ToPrimitives()
	return nil
}

func (r *ChatRepository) FindByID(_ context.Context, id string) (chat.Chat, error) {
	r.mu.RLock()
	p, ok := r.chats[id]
	r.mu.RUnlock()
	if !ok {
		return chat.Chat{}, domain.ErrChatNotFound.Detail("chat %s", id)
	}
	return chat.FromPrimitives(p)
}

func (r *ChatRepository) FindOne(ctx context.Context, criteria repository.ChatCriteria) (chat.Chat, error) {
	criteria.Limit = 1
	chats, err := r.Find(ctx, criteria)
	if err != nil {
		return chat.Chat{}, err
	}
	if len(chats) == 0 {
		return chat.Chat{}, domain.ErrChatNotFound
	}
	return chats[0], nil
}

func (r *ChatRepository) Find(_ context.Context, criteria repository.ChatCriteria) ([]chat.Chat, error) {
	r.mu.RLock()
	matched := lo.Filter(lo.Values(r.chats), func(p chat.Primitives, _ int) bool {
		return matches(p, criteria)
	})
	r.mu.RUnlock()

	newest := criteria.Order != repository.OrderOldest
	sort.Slice(matched, func(i, j int) bool {
		if newest {
			return after(matched[i], matched[j])
		}
		return after(matched[j], matched[i])
	})

	limit := criteria.Limit
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return toChats(matched)
}

func (r *ChatRepository) FindAll(ctx context.Context) ([]chat.Chat, error) {
	r.mu.RLock()
	all := lo.Values(r.chats)
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return after(all[i], all[j]) })
	return toChats(all)
}

func matches(p chat.Primitives, c repository.ChatCriteria) bool {
	if c.CompanyID != "" && p.CompanyID != c.CompanyID {
		return false
	}
	if len(c.Statuses) > 0 && !lo.Contains(c.Statuses, chat.Status(p.Status)) {
		return false
	}
	if c.ParticipantID != "" && !lo.ContainsBy(p.Participants, func(pp chat.ParticipantPrimitives) bool {
		return pp.ID == c.ParticipantID
	}) {
		return false
	}
	if c.Cursor != nil {
		cursor := chat.Primitives{ID: c.Cursor.ID, CreatedAt: c.Cursor.CreatedAt}
		if c.Order == repository.OrderOldest {
			return after(p, cursor)
		}
		return after(cursor, p)
	}
	return true
}

// after orders by (created_at, id), the same key the Postgres adapter pages on.
func after(a, b chat.Primitives) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func toChats(ps []chat.Primitives) ([]chat.Chat, error) {
	chats := make([]chat.Chat, 0, len(ps))
	for _, p := range ps {
		c, err := chat.FromPrimitives(p)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, nil
}
