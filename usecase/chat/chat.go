package chat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
	chatdomain "github.com/fastygo/livechat/domain/chat"
	appLogger "github.com/fastygo/livechat/pkg/logger"
	"github.com/fastygo/livechat/repository"
	"github.com/fastygo/livechat/usecase"
)

type Deps struct {
	Chats  repository.ChatRepository
	Events *usecase.EventEmitter
	IDs    domain.IDGenerator
	Clock  usecase.Clock
	Lanes  *usecase.ChatLanes
	Logger *zap.Logger
}

type UseCase struct {
	chats  repository.ChatRepository
	events *usecase.EventEmitter
	ids    domain.IDGenerator
	clock  usecase.Clock
	lanes  *usecase.ChatLanes
	logger *zap.Logger
}

func New(deps Deps) *UseCase {
	if deps.Chats == nil || deps.IDs == nil {
		panic("chat usecase: repository and id generator are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = usecase.SystemClock
	}
	if deps.Lanes == nil {
		deps.Lanes = usecase.NewChatLanes(0)
	}
	return &UseCase{
		chats:  deps.Chats,
		events: deps.Events,
		ids:    deps.IDs,
		clock:  deps.Clock,
		lanes:  deps.Lanes,
		logger: deps.Logger,
	}
}

type CreateChatCommand struct {
	ChatID      string `json:"chat_id"`
	CompanyID   string `json:"company_id"`
	VisitorID   string `json:"visitor_id"`
	VisitorName string `json:"visitor_name"`
}

type AddMessageCommand struct {
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type AssignCommercialCommand struct {
	ChatID         string `json:"chat_id"`
	CommercialID   string `json:"commercial_id"`
	CommercialName string `json:"commercial_name"`
}

type UnassignCommercialsCommand struct {
	ChatID        string   `json:"chat_id"`
	CommercialIDs []string `json:"commercial_ids"`
}

// ParticipantCommand addresses one participant of a chat. Flag and Name are
// read only by the commands that need them.
type ParticipantCommand struct {
	ChatID        string `json:"chat_id"`
	ParticipantID string `json:"participant_id"`
	Flag          bool   `json:"flag"`
	Name          string `json:"name"`
}

func (uc *UseCase) CreateChat(ctx context.Context, cmd CreateChatCommand) (chatdomain.Chat, error) {
	if cmd.CompanyID == "" || cmd.VisitorID == "" {
		return chatdomain.Chat{}, domain.ErrInvalidPayload.Detail("company_id and visitor_id are required")
	}
	id := cmd.ChatID
	if id == "" {
		id = uc.ids.NewID()
	}

	unlock := uc.lanes.Lock(id)
	defer unlock()

	if _, err := uc.chats.FindByID(ctx, id); err == nil {
		return chatdomain.Chat{}, domain.ErrInvalidPayload.Detail("chat %s already exists", id)
	} else if !errors.Is(err, domain.ErrChatNotFound) {
		return chatdomain.Chat{}, err
	}

	c, events := chatdomain.CreatePendingChat(id, cmd.CompanyID, chatdomain.Visitor{ID: cmd.VisitorID, Name: cmd.VisitorName}, uc.clock())
	if err := uc.chats.Save(ctx, c); err != nil {
		return chatdomain.Chat{}, err
	}
	uc.emit(ctx, events)

	appLogger.WithRequestID(ctx, uc.logger).Info("chat created",
		zap.String("chat_id", id),
		zap.String("company_id", cmd.CompanyID))
	return c, nil
}

func (uc *UseCase) AddMessage(ctx context.Context, cmd AddMessageCommand) (chatdomain.Chat, error) {
	at := cmd.CreatedAt
	if at.IsZero() {
		at = uc.clock()
	}
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.CanAddMessage(chatdomain.Message{SenderID: cmd.SenderID, Content: cmd.Content, CreatedAt: at})
	})
}

func (uc *UseCase) AssignCommercial(ctx context.Context, cmd AssignCommercialCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.AssignCommercial(chatdomain.Commercial{ID: cmd.CommercialID, Name: cmd.CommercialName}, at)
	})
}

func (uc *UseCase) UnassignCommercial(ctx context.Context, chatID, commercialID string) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, chatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.RemoveCommercial(commercialID, at)
	})
}

// UnassignCommercials removes every listed commercial present in the chat.
// IDs that are absent or not commercials are skipped.
func (uc *UseCase) UnassignCommercials(ctx context.Context, cmd UnassignCommercialsCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	log := appLogger.WithRequestID(ctx, uc.logger)
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		var all []domain.DomainEvent
		for _, id := range cmd.CommercialIDs {
			next, events, err := c.RemoveCommercial(id, at)
			if err != nil {
				if errors.Is(err, domain.ErrParticipantNotFound) || errors.Is(err, domain.ErrParticipantNotCommercial) {
					log.Warn("skipping commercial on unassign",
						zap.String("chat_id", cmd.ChatID),
						zap.String("commercial_id", id),
						zap.Error(err))
					continue
				}
				return chatdomain.Chat{}, nil, err
			}
			c = next
			all = append(all, events...)
		}
		return c, all, nil
	})
}

func (uc *UseCase) MarkSeen(ctx context.Context, cmd ParticipantCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.ParticipantSeenAt(cmd.ParticipantID, at)
	})
}

func (uc *UseCase) MarkUnseen(ctx context.Context, cmd ParticipantCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.ParticipantUnseenAt(cmd.ParticipantID, at)
	})
}

func (uc *UseCase) SetOnline(ctx context.Context, cmd ParticipantCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.ParticipantOnline(cmd.ParticipantID, cmd.Flag, at)
	})
}

func (uc *UseCase) SetViewing(ctx context.Context, cmd ParticipantCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.SetParticipantViewing(cmd.ParticipantID, cmd.Flag, at)
	})
}

func (uc *UseCase) SetTyping(ctx context.Context, cmd ParticipantCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.SetParticipantTyping(cmd.ParticipantID, cmd.Flag, at)
	})
}

func (uc *UseCase) RenameParticipant(ctx context.Context, cmd ParticipantCommand) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, cmd.ChatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.UpdateParticipantName(cmd.ParticipantID, cmd.Name, at)
	})
}

func (uc *UseCase) ConfirmChat(ctx context.Context, chatID string) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, chatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.Confirm(at)
	})
}

func (uc *UseCase) CloseChat(ctx context.Context, chatID string) (chatdomain.Chat, error) {
	at := uc.clock()
	return uc.mutate(ctx, chatID, func(c chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error) {
		return c.Close(at)
	})
}

func (uc *UseCase) GetChat(ctx context.Context, id string) (chatdomain.Chat, error) {
	return uc.chats.FindByID(ctx, id)
}

func (uc *UseCase) FindChats(ctx context.Context, criteria repository.ChatCriteria) ([]chatdomain.Chat, error) {
	return uc.chats.Find(ctx, criteria)
}

func (uc *UseCase) ListChats(ctx context.Context) ([]chatdomain.Chat, error) {
	return uc.chats.FindAll(ctx)
}

// mutate loads the chat inside its lane, applies op and persists the result
// before publishing. Operations that produce no event are not saved.
func (uc *UseCase) mutate(
	ctx context.Context,
	chatID string,
	op func(chatdomain.Chat) (chatdomain.Chat, []domain.DomainEvent, error),
) (chatdomain.Chat, error) {
	if chatID == "" {
		return chatdomain.Chat{}, domain.ErrInvalidPayload.Detail("chat_id is required")
	}

	unlock := uc.lanes.Lock(chatID)
	defer unlock()

	current, err := uc.chats.FindByID(ctx, chatID)
	if err != nil {
		return chatdomain.Chat{}, err
	}
	next, events, err := op(current)
	if err != nil {
		return chatdomain.Chat{}, err
	}
	if len(events) == 0 {
		return next, nil
	}
	if err := uc.chats.Save(ctx, next); err != nil {
		return chatdomain.Chat{}, err
	}
	uc.emit(ctx, events)
	return next, nil
}

func (uc *UseCase) emit(ctx context.Context, events []domain.DomainEvent) {
	// the emitter already logs; the state change is committed either way
	_ = uc.events.Emit(ctx, events)
}
