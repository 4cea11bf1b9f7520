package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/domain/chat"
	"github.com/fastygo/livechat/repository"
)

func seedChats(t *testing.T, repo *ChatRepository) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		company := "company-a"
		if i%2 == 1 {
			company = "company-b"
		}
		c, _ := chat.CreatePendingChat(fmt.Sprintf("chat-%d", i), company, chat.Visitor{ID: fmt.Sprintf("visitor-%d", i)}, base.Add(time.Duration(i)*time.Minute))
		if i == 4 {
			var err error
			c, _, err = c.AssignCommercial(chat.Commercial{ID: "agent-1", Name: "Alice"}, base)
			require.NoError(t, err)
			c, _, err = c.Confirm(base)
			require.NoError(t, err)
		}
		require.NoError(t, repo.Save(context.Background(), c))
	}
}

func TestChatRepository_Find(t *testing.T) {
	repo := NewChatRepository()
	seedChats(t, repo)
	ctx := context.Background()

	ids := func(chats []chat.Chat) []string {
		out := make([]string, 0, len(chats))
		for _, c := range chats {
			out = append(out, c.ID())
		}
		return out
	}

	tests := []struct {
		name     string
		criteria repository.ChatCriteria
		want     []string
	}{
		{name: "newest first by default", criteria: repository.ChatCriteria{}, want: []string{"chat-4", "chat-3", "chat-2", "chat-1", "chat-0"}},
		{name: "company", criteria: repository.ChatCriteria{CompanyID: "company-b", Order: repository.OrderOldest}, want: []string{"chat-1", "chat-3"}},
		{name: "status", criteria: repository.ChatCriteria{Statuses: []chat.Status{chat.StatusActive}}, want: []string{"chat-4"}},
		{name: "participant", criteria: repository.ChatCriteria{ParticipantID: "visitor-2"}, want: []string{"chat-2"}},
		{name: "limit", criteria: repository.ChatCriteria{Limit: 2}, want: []string{"chat-4", "chat-3"}},
		{
			name: "cursor",
			criteria: repository.ChatCriteria{
				Limit:  2,
				Cursor: &repository.ChatCursor{CreatedAt: time.Date(2026, 3, 1, 9, 3, 0, 0, time.UTC), ID: "chat-3"},
			},
			want: []string{"chat-2", "chat-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats, err := repo.Find(ctx, tt.criteria)
			require.NoError(t, err)
			require.Equal(t, tt.want, ids(chats))
		})
	}
}

func TestChatRepository_FindByIDAndFindOne(t *testing.T) {
	req := require.New(t)
	repo := NewChatRepository()
	seedChats(t, repo)
	ctx := context.Background()

	c, err := repo.FindByID(ctx, "chat-4")
	req.NoError(err)
	req.True(c.HasParticipant("agent-1"))

	_, err = repo.FindByID(ctx, "missing")
	req.ErrorIs(err, domain.ErrChatNotFound)

	_, err = repo.FindOne(ctx, repository.ChatCriteria{CompanyID: "company-z"})
	req.ErrorIs(err, domain.ErrChatNotFound)

	all, err := repo.FindAll(ctx)
	req.NoError(err)
	req.Len(all, 5)
}
