package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/livechat/api/handler"
	"github.com/fastygo/livechat/internal/middleware"
)

type Handlers struct {
	Chat     *apiHandler.ChatHandler
	Claim    *apiHandler.ClaimHandler
	Presence *apiHandler.PresenceHandler
	Command  *apiHandler.CommandHandler
	Health   *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authMiddleware Middleware) *router.Router {
	r := router.New()

	auth := authMiddleware
	commercial := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authMiddleware(middleware.RequireRole(middleware.RoleCommercial)(next))
	}

	r.GET("/health", handlers.Health.Check)

	// Chats
	r.POST("/api/v1/chats", auth(handlers.Chat.CreateChat))
	r.GET("/api/v1/chats", commercial(handlers.Chat.ListChats))
	r.GET("/api/v1/chats/{id}", auth(handlers.Chat.GetChat))
	r.POST("/api/v1/chats/{id}/messages", auth(handlers.Chat.AddMessage))
	r.POST("/api/v1/chats/{id}/confirm", commercial(handlers.Chat.ConfirmChat))
	r.POST("/api/v1/chats/{id}/close", auth(handlers.Chat.CloseChat))

	r.POST("/api/v1/chats/{id}/commercials", commercial(handlers.Chat.AssignCommercial))
	r.POST("/api/v1/chats/{id}/commercials/unassign", commercial(handlers.Chat.UnassignCommercials))
	r.DELETE("/api/v1/chats/{id}/commercials/{participantID}", commercial(handlers.Chat.UnassignCommercial))

	// Participants
	r.POST("/api/v1/chats/{id}/participants/{participantID}/seen", auth(handlers.Chat.MarkSeen))
	r.POST("/api/v1/chats/{id}/participants/{participantID}/unseen", auth(handlers.Chat.MarkUnseen))
	r.PUT("/api/v1/chats/{id}/participants/{participantID}/online", auth(handlers.Chat.SetOnline))
	r.PUT("/api/v1/chats/{id}/participants/{participantID}/viewing", auth(handlers.Chat.SetViewing))
	r.PUT("/api/v1/chats/{id}/participants/{participantID}/typing", auth(handlers.Chat.SetTyping))
	r.PUT("/api/v1/chats/{id}/participants/{participantID}/name", auth(handlers.Chat.RenameParticipant))

	// Claims
	r.POST("/api/v1/chats/{id}/claim", commercial(handlers.Claim.ClaimChat))
	r.DELETE("/api/v1/chats/{id}/claim", commercial(handlers.Claim.ReleaseClaim))
	r.GET("/api/v1/chats/{id}/claim", auth(handlers.Claim.GetChatClaim))
	r.POST("/api/v1/chats/{id}/auto-assign", auth(handlers.Claim.AutoAssign))
	r.GET("/api/v1/claims/mine", commercial(handlers.Claim.MyClaims))
	r.GET("/api/v1/claims/active-chats", commercial(handlers.Claim.ActiveChatIDs))

	// Presence
	r.GET("/api/v1/presence/{companyID}", auth(handlers.Presence.Online))
	r.PUT("/api/v1/presence/{companyID}", commercial(handlers.Presence.Heartbeat))
	r.DELETE("/api/v1/presence/{companyID}", commercial(handlers.Presence.Offline))

	// Dispatcher
	r.GET("/api/v1/commands", commercial(handlers.Command.List))
	r.POST("/api/v1/commands/{name}", commercial(handlers.Command.Execute))
	r.POST("/api/v1/queries/{name}", commercial(handlers.Command.Query))

	return r
}
