package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/api/transport"
	"github.com/fastygo/livechat/domain"
	chatdomain "github.com/fastygo/livechat/domain/chat"
	"github.com/fastygo/livechat/internal/middleware"
	"github.com/fastygo/livechat/pkg/httpcontext"
	"github.com/fastygo/livechat/repository"
	chatUC "github.com/fastygo/livechat/usecase/chat"
)

type ChatHandler struct {
	baseHandler
	uc *chatUC.UseCase
}

func NewChatHandler(uc *chatUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Open a chat for a visitor
// @Tags chats
// @Router /api/v1/chats [post]
func (h *ChatHandler) CreateChat(ctx *fasthttp.RequestCtx) {
	var req transport.CreateChatRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.uc.CreateChat(stdCtx, chatUC.CreateChatCommand{
		ChatID:      req.ChatID,
		CompanyID:   req.CompanyID,
		VisitorID:   req.VisitorID,
		VisitorName: req.VisitorName,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, c.ToPrimitives())
}

// @Summary List chats
// @Tags chats
// @Router /api/v1/chats [get]
func (h *ChatHandler) ListChats(ctx *fasthttp.RequestCtx) {
	criteria, err := h.criteria(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	chats, err := h.uc.FindChats(stdCtx, criteria)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	var meta interface{}
	if len(chats) > 0 && criteria.Limit > 0 && len(chats) == criteria.Limit {
		last := chats[len(chats)-1]
		meta = transport.PageMeta{
			NextCursorCreatedAt: last.CreatedAt().Format(time.RFC3339Nano),
			NextCursorID:        last.ID(),
		}
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(
		lo.Map(chats, func(c chatdomain.Chat, _ int) chatdomain.Primitives { return c.ToPrimitives() }),
		meta,
	))
}

// @Summary Get a chat
// @Tags chats
// @Router /api/v1/chats/{id} [get]
func (h *ChatHandler) GetChat(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.uc.GetChat(stdCtx, chatID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

// @Summary Send a message
// @Tags chats
// @Router /api/v1/chats/{id}/messages [post]
func (h *ChatHandler) AddMessage(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}
	var req transport.MessageRequest
	if !h.decode(ctx, &req) {
		return
	}
	sender := h.userID(ctx)
	if sender == "" {
		return
	}
	// only commercials may post on behalf of another sender
	if req.SenderID != "" && req.SenderID != sender {
		if string(ctx.Request.Header.Peek(middleware.HeaderUserRole)) != middleware.RoleCommercial {
			h.respondError(ctx, domain.ErrForbidden.Detail("cannot send as %s", req.SenderID))
			return
		}
		sender = req.SenderID
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.uc.AddMessage(stdCtx, chatUC.AddMessageCommand{
		ChatID:    chatID,
		SenderID:  sender,
		Content:   req.Content,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

// @Summary Assign a commercial
// @Tags chats
// @Router /api/v1/chats/{id}/commercials [post]
func (h *ChatHandler) AssignCommercial(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}
	var req transport.AssignCommercialRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.uc.AssignCommercial(stdCtx, chatUC.AssignCommercialCommand{
		ChatID:         chatID,
		CommercialID:   req.CommercialID,
		CommercialName: req.CommercialName,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

// @Summary Remove a commercial
// @Tags chats
// @Router /api/v1/chats/{id}/commercials/{participantID} [delete]
func (h *ChatHandler) UnassignCommercial(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}
	commercialID := h.pathParam(ctx, "participantID")
	if commercialID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.uc.UnassignCommercial(stdCtx, chatID, commercialID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

// @Summary Remove several commercials
// @Tags chats
// @Router /api/v1/chats/{id}/commercials/unassign [post]
func (h *ChatHandler) UnassignCommercials(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}
	var req transport.UnassignCommercialsRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.uc.UnassignCommercials(stdCtx, chatUC.UnassignCommercialsCommand{
		ChatID:        chatID,
		CommercialIDs: req.CommercialIDs,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

// @Summary Participant opened the chat
// @Tags participants
// @Router /api/v1/chats/{id}/participants/{participantID}/seen [post]
func (h *ChatHandler) MarkSeen(ctx *fasthttp.RequestCtx) {
	h.participant(ctx, nil, h.uc.MarkSeen)
}

// @Summary Participant left the chat view
// @Tags participants
// @Router /api/v1/chats/{id}/participants/{participantID}/unseen [post]
func (h *ChatHandler) MarkUnseen(ctx *fasthttp.RequestCtx) {
	h.participant(ctx, nil, h.uc.MarkUnseen)
}

// @Summary Set online flag
// @Tags participants
// @Router /api/v1/chats/{id}/participants/{participantID}/online [put]
func (h *ChatHandler) SetOnline(ctx *fasthttp.RequestCtx) {
	h.flag(ctx, h.uc.SetOnline)
}

// @Summary Set viewing flag
// @Tags participants
// @Router /api/v1/chats/{id}/participants/{participantID}/viewing [put]
func (h *ChatHandler) SetViewing(ctx *fasthttp.RequestCtx) {
	h.flag(ctx, h.uc.SetViewing)
}

// @Summary Set typing flag
// @Tags participants
// @Router /api/v1/chats/{id}/participants/{participantID}/typing [put]
func (h *ChatHandler) SetTyping(ctx *fasthttp.RequestCtx) {
	h.flag(ctx, h.uc.SetTyping)
}

// @Summary Rename participant
// @Tags participants
// @Router /api/v1/chats/{id}/participants/{participantID}/name [put]
func (h *ChatHandler) RenameParticipant(ctx *fasthttp.RequestCtx) {
	var req transport.RenameRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.participant(ctx, func(cmd *chatUC.ParticipantCommand) { cmd.Name = req.Name }, h.uc.RenameParticipant)
}

// @Summary Confirm a pending chat
// @Tags chats
// @Router /api/v1/chats/{id}/confirm [post]
func (h *ChatHandler) ConfirmChat(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.ConfirmChat)
}

// @Summary Close a chat
// @Tags chats
// @Router /api/v1/chats/{id}/close [post]
func (h *ChatHandler) CloseChat(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.CloseChat)
}

type participantFn func(ctx context.Context, cmd chatUC.ParticipantCommand) (chatdomain.Chat, error)

func (h *ChatHandler) flag(ctx *fasthttp.RequestCtx, fn participantFn) {
	var req transport.FlagRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.participant(ctx, func(cmd *chatUC.ParticipantCommand) { cmd.Flag = *req.Value }, fn)
}

func (h *ChatHandler) participant(ctx *fasthttp.RequestCtx, fill func(*chatUC.ParticipantCommand), fn participantFn) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}
	participantID := h.pathParam(ctx, "participantID")
	if participantID == "" {
		return
	}

	cmd := chatUC.ParticipantCommand{ChatID: chatID, ParticipantID: participantID}
	if fill != nil {
		fill(&cmd)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := fn(stdCtx, cmd)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

func (h *ChatHandler) transition(ctx *fasthttp.RequestCtx, fn func(context.Context, string) (chatdomain.Chat, error)) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := fn(stdCtx, chatID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, c.ToPrimitives())
}

// criteria reads list filters from the query string. The company defaults
// to the one in the caller's token.
func (h *ChatHandler) criteria(ctx *fasthttp.RequestCtx) (repository.ChatCriteria, error) {
	args := ctx.QueryArgs()
	criteria := repository.ChatCriteria{
		CompanyID:     string(args.Peek("company_id")),
		ParticipantID: string(args.Peek("participant_id")),
		Limit:         parseInt(string(args.Peek("limit")), 50),
		Order:         repository.SortOrder(args.Peek("order")),
	}
	if criteria.CompanyID == "" {
		criteria.CompanyID = string(ctx.Request.Header.Peek(middleware.HeaderCompanyID))
	}
	switch criteria.Order {
	case "", repository.OrderNewest, repository.OrderOldest:
	default:
		return criteria, domain.ErrInvalidPayload.Detail("unknown order %q", criteria.Order)
	}

	if raw := string(args.Peek("status")); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			status, err := chatdomain.ParseStatus(strings.TrimSpace(value))
			if err != nil {
				return criteria, err
			}
			criteria.Statuses = append(criteria.Statuses, status)
		}
	}

	if cursorID := string(args.Peek("cursor_id")); cursorID != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, string(args.Peek("cursor_created_at")))
		if err != nil {
			return criteria, domain.ErrInvalidPayload.Detail("cursor_created_at: %v", err)
		}
		criteria.Cursor = &repository.ChatCursor{CreatedAt: createdAt, ID: cursorID}
	}
	return criteria, nil
}
