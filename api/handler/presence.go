package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/api/transport"
	"github.com/fastygo/livechat/pkg/httpcontext"
	presenceUC "github.com/fastygo/livechat/usecase/presence"
)

type PresenceHandler struct {
	baseHandler
	uc *presenceUC.UseCase
}

func NewPresenceHandler(uc *presenceUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Commercial heartbeat
// @Tags presence
// @Router /api/v1/presence/{companyID} [put]
func (h *PresenceHandler) Heartbeat(ctx *fasthttp.RequestCtx) {
	commercialID := h.userID(ctx)
	if commercialID == "" {
		return
	}
	companyID := h.pathParam(ctx, "companyID")
	if companyID == "" {
		return
	}
	var req transport.HeartbeatRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	err := h.uc.Heartbeat(stdCtx, presenceUC.HeartbeatCommand{
		CompanyID:    companyID,
		CommercialID: commercialID,
		Name:         req.Name,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Commercial goes offline
// @Tags presence
// @Router /api/v1/presence/{companyID} [delete]
func (h *PresenceHandler) Offline(ctx *fasthttp.RequestCtx) {
	commercialID := h.userID(ctx)
	if commercialID == "" {
		return
	}
	companyID := h.pathParam(ctx, "companyID")
	if companyID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.GoOffline(stdCtx, companyID, commercialID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Online commercials of a company
// @Tags presence
// @Router /api/v1/presence/{companyID} [get]
func (h *PresenceHandler) Online(ctx *fasthttp.RequestCtx) {
	companyID := h.pathParam(ctx, "companyID")
	if companyID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	online, err := h.uc.Online(stdCtx, companyID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, online)
}
