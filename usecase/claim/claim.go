package claim

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/livechat/domain"
	chatdomain "github.com/fastygo/livechat/domain/chat"
	claimdomain "github.com/fastygo/livechat/domain/claim"
	appLogger "github.com/fastygo/livechat/pkg/logger"
	"github.com/fastygo/livechat/repository"
	"github.com/fastygo/livechat/usecase"
)

// rollbackTimeout bounds the compensating delete after a failed claim.
const rollbackTimeout = 5 * time.Second

type Deps struct {
	Claims     repository.ClaimRepository
	Chats      repository.ChatRepository
	Presence   repository.PresenceRepository
	Assignment claimdomain.AssignmentService
	Events     *usecase.EventEmitter
	IDs        domain.IDGenerator
	Clock      usecase.Clock
	Lanes      *usecase.ChatLanes
	Logger     *zap.Logger
}

type UseCase struct {
	claims     repository.ClaimRepository
	chats      repository.ChatRepository
	presence   repository.PresenceRepository
	assignment claimdomain.AssignmentService
	events     *usecase.EventEmitter
	ids        domain.IDGenerator
	clock      usecase.Clock
	lanes      *usecase.ChatLanes
	logger     *zap.Logger
}

func New(deps Deps) *UseCase {
	if deps.Claims == nil || deps.Chats == nil || deps.IDs == nil {
		panic("claim usecase: claim and chat repositories and id generator are required")
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
		claims:     deps.Claims,
		chats:      deps.Chats,
		presence:   deps.Presence,
		assignment: deps.Assignment,
		events:     deps.Events,
		ids:        deps.IDs,
		clock:      deps.Clock,
		lanes:      deps.Lanes,
		logger:     deps.Logger,
	}
}

type ClaimChatCommand struct {
	ChatID        string `json:"chat_id"`
	ComercialID   string `json:"comercial_id"`
	ComercialName string `json:"comercial_name"`
}

type ReleaseClaimCommand struct {
	ChatID      string `json:"chat_id"`
	ComercialID string `json:"comercial_id"`
	// Unassign also removes the commercial from the chat roster.
	Unassign bool `json:"unassign"`
}

// Result is the state after a successful claim operation.
type Result struct {
	Claim claimdomain.ComercialClaim
	Chat  chatdomain.Chat
}

// ClaimChat gives the commercial exclusive ownership of the chat and adds
// them to its roster. A chat that already has an active claim yields
// domain.ErrChatAlreadyClaimed, whether the conflict is seen here or by storage.
func (uc *UseCase) ClaimChat(ctx context.Context, cmd ClaimChatCommand) (Result, error) {
	if cmd.ChatID == "" || cmd.ComercialID == "" {
		return Result{}, domain.ErrInvalidPayload.Detail("chat_id and comercial_id are required")
	}
	log := appLogger.WithRequestID(ctx, uc.logger).With(
		zap.String("chat_id", cmd.ChatID),
		zap.String("comercial_id", cmd.ComercialID))

	unlock := uc.lanes.Lock(cmd.ChatID)
	defer unlock()

	c, err := uc.chats.FindByID(ctx, cmd.ChatID)
	if err != nil {
		return Result{}, err
	}
	if c.IsClosed() {
		return Result{}, domain.ErrChatClosed.Detail("chat %s", cmd.ChatID)
	}

	existing, err := uc.claims.FindActiveClaimForChat(ctx, cmd.ChatID)
	if err != nil {
		return Result{}, err
	}
	if err := uc.assignment.CanComercialClaimChat(cmd.ComercialID, cmd.ChatID, existing); err != nil {
		return Result{}, domain.ErrChatAlreadyClaimed.Detail("chat %s", cmd.ChatID)
	}

	now := uc.clock()
	cl, claimEvents := claimdomain.Create(uc.ids.NewID(), cmd.ChatID, cmd.ComercialID, now)
	if err := uc.claims.Save(ctx, cl); err != nil {
		return Result{}, err
	}

	next, chatEvents, err := c.AssignCommercial(chatdomain.Commercial{ID: cmd.ComercialID, Name: cmd.ComercialName}, now)
	if err == nil {
		err = uc.chats.Save(ctx, next)
	}
	if err != nil {
		uc.rollbackClaim(ctx, log, cl.ID())
		return Result{}, err
	}

	_ = uc.events.Emit(ctx, append(claimEvents, chatEvents...))
	log.Info("chat claimed", zap.String("claim_id", cl.ID()))
	return Result{Claim: cl, Chat: next}, nil
}

// ReleaseClaim ends the active claim of the chat on behalf of its owner.
func (uc *UseCase) ReleaseClaim(ctx context.Context, cmd ReleaseClaimCommand) (Result, error) {
	if cmd.ChatID == "" || cmd.ComercialID == "" {
		return Result{}, domain.ErrInvalidPayload.Detail("chat_id and comercial_id are required")
	}

	unlock := uc.lanes.Lock(cmd.ChatID)
	defer unlock()

	active, err := uc.claims.FindActiveClaimForChat(ctx, cmd.ChatID)
	if err != nil {
		return Result{}, err
	}
	if active == nil {
		return Result{}, domain.ErrClaimNotFound.Detail("no active claim for chat %s", cmd.ChatID)
	}
	if err := uc.assignment.CanComercialReleaseClaim(cmd.ComercialID, *active); err != nil {
		return Result{}, err
	}

	now := uc.clock()
	released, events, err := active.ReleaseBy(cmd.ComercialID, now)
	if err != nil {
		return Result{}, err
	}
	if err := uc.claims.Update(ctx, released); err != nil {
		return Result{}, err
	}

	log := appLogger.WithRequestID(ctx, uc.logger).With(
		zap.String("chat_id", cmd.ChatID),
		zap.String("claim_id", released.ID()))

	var c chatdomain.Chat
	if cmd.Unassign {
		next, chatEvents, err := uc.unassign(ctx, cmd, now)
		if err != nil {
			// the release is committed, so its events go out even though
			// the roster still lists the commercial
			_ = uc.events.Emit(ctx, events)
			log.Error("claim released but commercial not unassigned", zap.Error(err))
			return Result{Claim: released}, err
		}
		c = next
		events = append(events, chatEvents...)
	}

	_ = uc.events.Emit(ctx, events)
	log.Info("claim released")
	return Result{Claim: released, Chat: c}, nil
}

// unassign removes the commercial from the chat roster. A commercial that is
// no longer in the roster is not an error.
func (uc *UseCase) unassign(ctx context.Context, cmd ReleaseClaimCommand, at time.Time) (chatdomain.Chat, []domain.DomainEvent, error) {
	current, err := uc.chats.FindByID(ctx, cmd.ChatID)
	if err != nil {
		return chatdomain.Chat{}, nil, err
	}
	next, events, err := current.RemoveCommercial(cmd.ComercialID, at)
	switch {
	case errors.Is(err, domain.ErrParticipantNotFound), errors.Is(err, domain.ErrParticipantNotCommercial):
		appLogger.WithRequestID(ctx, uc.logger).Warn("released commercial is not in the roster",
			zap.String("chat_id", cmd.ChatID),
			zap.String("comercial_id", cmd.ComercialID))
		return current, nil, nil
	case err != nil:
		return chatdomain.Chat{}, nil, err
	}
	if err := uc.chats.Save(ctx, next); err != nil {
		return chatdomain.Chat{}, nil, err
	}
	return next, events, nil
}

// rollbackClaim deletes a claim whose chat could not be updated. It runs
// detached from ctx, which is often the reason the chat save failed.
func (uc *UseCase) rollbackClaim(ctx context.Context, log *zap.Logger, claimID string) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := uc.claims.Delete(rbCtx, claimID); err != nil {
		log.Error("failed to roll back claim", zap.String("claim_id", claimID), zap.Error(err))
	}
}

type candidate struct {
	commercial repository.OnlineCommercial
	load       int
	priority   int
}

// AutoAssign claims the chat for the best ranked online commercial of its
// company. It returns nil without error when nobody could take the chat.
func (uc *UseCase) AutoAssign(ctx context.Context, chatID string) (*Result, error) {
	if uc.presence == nil {
		return nil, domain.ErrPresenceUnavailable.Detail("presence repository is not configured")
	}
	log := appLogger.WithRequestID(ctx, uc.logger).With(zap.String("chat_id", chatID))

	c, err := uc.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c.IsClosed() {
		return nil, domain.ErrChatClosed.Detail("chat %s", chatID)
	}
	online, err := uc.presence.OnlineCommercials(ctx, c.CompanyID())
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(online))
	for _, oc := range online {
		claims, err := uc.claims.FindActiveClaimsByComercial(ctx, oc.ID)
		if err != nil {
			log.Warn("skipping candidate without load information", zap.String("comercial_id", oc.ID), zap.Error(err))
			continue
		}
		candidates = append(candidates, candidate{
			commercial: oc,
			load:       len(claims),
			priority:   uc.assignment.CalculateAssignmentPriority(oc.ID, len(claims)),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if a.load != b.load {
			return a.load < b.load
		}
		return a.commercial.ID < b.commercial.ID
	})

	for _, cand := range candidates {
		res, err := uc.ClaimChat(ctx, ClaimChatCommand{
			ChatID:        chatID,
			ComercialID:   cand.commercial.ID,
			ComercialName: cand.commercial.Name,
		})
		if err == nil {
			return &res, nil
		}
		if errors.Is(err, domain.ErrChatAlreadyClaimed) || errors.Is(err, domain.ErrChatClosed) {
			return nil, err
		}
		log.Warn("auto-assign candidate failed", zap.String("comercial_id", cand.commercial.ID), zap.Error(err))
	}

	log.Info("no commercial available for chat", zap.Int("online", len(online)))
	return nil, nil
}

func (uc *UseCase) ActiveClaimForChat(ctx context.Context, chatID string) (*claimdomain.ComercialClaim, error) {
	return uc.claims.FindActiveClaimForChat(ctx, chatID)
}

func (uc *UseCase) ActiveClaimsByComercial(ctx context.Context, comercialID string) ([]claimdomain.ComercialClaim, error) {
	return uc.claims.FindActiveClaimsByComercial(ctx, comercialID)
}

func (uc *UseCase) ActiveChatIDs(ctx context.Context) ([]string, error) {
	return uc.claims.GetActiveChatIDs(ctx)
}
