package handler

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/api/transport"
	"github.com/fastygo/livechat/domain"
	claimdomain "github.com/fastygo/livechat/domain/claim"
	"github.com/fastygo/livechat/pkg/httpcontext"
	claimUC "github.com/fastygo/livechat/usecase/claim"
)

type ClaimHandler struct {
	baseHandler
	uc *claimUC.UseCase
}

func NewClaimHandler(uc *claimUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Claim a chat for the calling commercial
// @Tags claims
// @Router /api/v1/chats/{id}/claim [post]
func (h *ClaimHandler) ClaimChat(ctx *fasthttp.RequestCtx) {
	comercialID := h.userID(ctx)
	if comercialID == "" {
		return
	}
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}
	var req transport.ClaimRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.ClaimChat(stdCtx, claimUC.ClaimChatCommand{
		ChatID:        chatID,
		ComercialID:   comercialID,
		ComercialName: req.Name,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, res.Snapshot())
}

// @Summary Release the caller's claim on a chat
// @Tags claims
// @Param unassign query bool false "also remove the commercial from the chat"
// @Router /api/v1/chats/{id}/claim [delete]
func (h *ClaimHandler) ReleaseClaim(ctx *fasthttp.RequestCtx) {
	comercialID := h.userID(ctx)
	if comercialID == "" {
		return
	}
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.ReleaseClaim(stdCtx, claimUC.ReleaseClaimCommand{
		ChatID:      chatID,
		ComercialID: comercialID,
		Unassign:    ctx.QueryArgs().GetBool("unassign"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, res.Snapshot())
}

// @Summary Hand the chat to the best online commercial
// @Tags claims
// @Router /api/v1/chats/{id}/auto-assign [post]
func (h *ClaimHandler) AutoAssign(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.AutoAssign(stdCtx, chatID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if res == nil {
		h.respondSuccess(ctx, http.StatusAccepted, map[string]bool{"assigned": false})
		return
	}
	h.respondSuccess(ctx, http.StatusOK, res.Snapshot())
}

// @Summary Active claim of a chat
// @Tags claims
// @Router /api/v1/chats/{id}/claim [get]
func (h *ClaimHandler) GetChatClaim(ctx *fasthttp.RequestCtx) {
	chatID := h.pathParam(ctx, "id")
	if chatID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	active, err := h.uc.ActiveClaimForChat(stdCtx, chatID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if active == nil {
		h.respondError(ctx, domain.ErrClaimNotFound.Detail("no active claim for chat %s", chatID))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, active.ToPrimitives())
}

// @Summary Active claims of the calling commercial
// @Tags claims
// @Router /api/v1/claims/mine [get]
func (h *ClaimHandler) MyClaims(ctx *fasthttp.RequestCtx) {
	comercialID := h.userID(ctx)
	if comercialID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	claims, err := h.uc.ActiveClaimsByComercial(stdCtx, comercialID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK,
		lo.Map(claims, func(c claimdomain.ComercialClaim, _ int) claimdomain.Primitives { return c.ToPrimitives() }))
}

// @Summary Chats that currently have an active claim
// @Tags claims
// @Router /api/v1/claims/active-chats [get]
func (h *ClaimHandler) ActiveChatIDs(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ids, err := h.uc.ActiveChatIDs(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	h.respondSuccess(ctx, http.StatusOK, ids)
}
