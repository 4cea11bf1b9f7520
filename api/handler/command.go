package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/pkg/httpcontext"
	"github.com/fastygo/livechat/usecase"
)

// CommandHandler exposes the dispatcher so that gateways can forward named
// commands and queries without a dedicated route for each.
type CommandHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
}

func NewCommandHandler(dispatcher *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
	}
}

// @Summary Execute a named command
// @Tags dispatcher
// @Router /api/v1/commands/{name} [post]
func (h *CommandHandler) Execute(ctx *fasthttp.RequestCtx) {
	name := h.pathParam(ctx, "name")
	if name == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	out, err := h.dispatcher.ExecuteCommand(stdCtx, name, body(ctx))
	if err != nil {
		h.withLogger(stdCtx).Debug("command rejected", zap.String("command", name), zap.Error(err))
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, out)
}

// @Summary Run a named query
// @Tags dispatcher
// @Router /api/v1/queries/{name} [post]
func (h *CommandHandler) Query(ctx *fasthttp.RequestCtx) {
	name := h.pathParam(ctx, "name")
	if name == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	out, err := h.dispatcher.ExecuteQuery(stdCtx, name, body(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, out)
}

// @Summary List registered commands and queries
// @Tags dispatcher
// @Router /api/v1/commands [get]
func (h *CommandHandler) List(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, map[string][]string{
		"commands": h.dispatcher.Commands(),
		"queries":  h.dispatcher.Queries(),
	})
}

func body(ctx *fasthttp.RequestCtx) json.RawMessage {
	raw := ctx.PostBody()
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	// the request buffer is reused once the handler returns
	return json.RawMessage(append([]byte(nil), raw...))
}
