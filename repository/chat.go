package repository

import (
	"context"
	"time"

	"github.com/fastygo/livechat/domain/chat"
)

type SortOrder string

const (
	OrderNewest SortOrder = "newest"
	OrderOldest SortOrder = "oldest"
)

// ChatCursor points at the last chat of the previous page.
type ChatCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// ChatCriteria narrows a chat lookup. Zero fields do not filter.
type ChatCriteria struct {
	CompanyID     string        `json:"company_id"`
	Statuses      []chat.Status `json:"statuses"`
	ParticipantID string        `json:"participant_id"`
	Cursor        *ChatCursor   `json:"cursor"`
	Limit         int           `json:"limit"`
	Order         SortOrder     `json:"order"`
}

type ChatRepository interface {
	Save(ctx context.Context, c chat.Chat) error
	FindByID(ctx context.Context, id string) (chat.Chat, error)
	// FindOne returns the first match or domain.ErrChatNotFound.
	FindOne(ctx context.Context, criteria ChatCriteria) (chat.Chat, error)
	Find(ctx context.Context, criteria ChatCriteria) ([]chat.Chat, error)
	FindAll(ctx context.Context) ([]chat.Chat, error)
}
