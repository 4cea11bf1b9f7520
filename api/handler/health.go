package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/livechat/api/transport"
	"github.com/fastygo/livechat/internal/infrastructure/monitor"
	"github.com/fastygo/livechat/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	services := map[string]interface{}{
		"storage": status.Storage,
		"redis":   status.Redis,
		"outbox": map[string]interface{}{
			"online":  status.Outbox,
			"pending": status.OutboxSize,
			"dead":    status.OutboxDead,
		},
	}
	if status.Storage == monitor.StoragePostgres {
		services["postgresql"] = status.PostgreSQL
	}
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"services":   services,
	}

	if h.monitor.IsOnline() && status.Outbox {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	// events still reach the outbox while dependencies are down
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", transport.ErrorBody{Message: "dependencies unhealthy"}, payload))
}
