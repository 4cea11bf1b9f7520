package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/livechat/domain"
	claimdomain "github.com/fastygo/livechat/domain/claim"
	"github.com/fastygo/livechat/internal/middleware"
	"github.com/fastygo/livechat/pkg/httpcontext"
	"github.com/fastygo/livechat/repository/memory"
	"github.com/fastygo/livechat/usecase"
	chatUC "github.com/fastygo/livechat/usecase/chat"
	claimUC "github.com/fastygo/livechat/usecase/claim"
	presenceUC "github.com/fastygo/livechat/usecase/presence"
)

type fixture struct {
	chat     *ChatHandler
	claim    *ClaimHandler
	presence *PresenceHandler
	command  *CommandHandler
}

func newFixture() fixture {
	ids := domain.NewSequenceGenerator("id")
	lanes := usecase.NewChatLanes(8)
	chats := memory.NewChatRepository()
	presenceRepo := memory.NewPresenceRepository(time.Minute, nil)
	emitter := usecase.NewEventEmitter(nil, ids, nil)

	chatUsecase := chatUC.New(chatUC.Deps{Chats: chats, Events: emitter, IDs: ids, Lanes: lanes})
	claims := claimUC.New(claimUC.Deps{
		Claims:     memory.NewClaimRepository(),
		Chats:      chats,
		Presence:   presenceRepo,
		Assignment: claimdomain.NewAssignmentService(),
		Events:     emitter,
		IDs:        ids,
		Lanes:      lanes,
	})
	presence := presenceUC.New(presenceRepo, nil, nil)

	dispatcher := usecase.NewDispatcher()
	chatUsecase.Register(dispatcher)
	claims.Register(dispatcher)
	presence.Register(dispatcher)

	adapter := httpcontext.NewAdapter(time.Second)
	return fixture{
		chat:     NewChatHandler(chatUsecase, adapter, nil),
		claim:    NewClaimHandler(claims, adapter, nil),
		presence: NewPresenceHandler(presence, adapter, nil),
		command:  NewCommandHandler(dispatcher, adapter, nil),
	}
}

type response struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  struct {
		Message string `json:"message"`
		Kind    string `json:"kind"`
	} `json:"error"`
}

type call struct {
	body   string
	user   string
	role   string
	params map[string]string
	query  string
}

func do(t *testing.T, h fasthttp.RequestHandler, c call) (int, response) {
	t.Helper()
	var ctx fasthttp.RequestCtx
	if c.body != "" {
		ctx.Request.SetBodyString(c.body)
	}
	if c.user != "" {
		ctx.Request.Header.Set(middleware.HeaderUserID, c.user)
	}
	if c.role != "" {
		ctx.Request.Header.Set(middleware.HeaderUserRole, c.role)
	}
	if c.query != "" {
		ctx.Request.SetRequestURI("/?" + c.query)
	}
	for k, v := range c.params {
		ctx.SetUserValue(k, v)
	}
	h(&ctx)

	var out response
	if body := ctx.Response.Body(); len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return ctx.Response.StatusCode(), out
}

func chatParams(id string) map[string]string { return map[string]string{"id": id} }

func TestChatHandler_CreateAndGet(t *testing.T) {
	f := newFixture()

	status, res := do(t, f.chat.CreateChat, call{body: `{"chat_id":"chat-1","company_id":"co","visitor_id":"V","visitor_name":"Val"}`})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "success", res.Status)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &created))
	assert.Equal(t, "chat-1", created.ID)
	assert.Equal(t, "pending", created.Status)

	status, _ = do(t, f.chat.GetChat, call{params: chatParams("chat-1")})
	assert.Equal(t, http.StatusOK, status)

	status, res = do(t, f.chat.GetChat, call{params: chatParams("missing")})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "chat_not_found", res.Error.Kind)
}

func TestChatHandler_Validation(t *testing.T) {
	f := newFixture()

	status, res := do(t, f.chat.CreateChat, call{body: `{"company_id":"co"}`})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.ErrCodeInvalid), res.Code)
	assert.Equal(t, "invalid_payload", res.Error.Kind)

	status, _ = do(t, f.chat.ListChats, call{query: "status=bogus"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, f.chat.GetChat, call{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChatHandler_MessageRules(t *testing.T) {
	f := newFixture()
	_, _ = do(t, f.chat.CreateChat, call{body: `{"chat_id":"chat-1","company_id":"co","visitor_id":"V"}`})

	status, _ := do(t, f.chat.AddMessage, call{
		params: chatParams("chat-1"),
		user:   "V",
		body:   `{"content":"hi","created_at":"2025-01-01T10:00:00Z"}`,
	})
	require.Equal(t, http.StatusOK, status)

	status, res := do(t, f.chat.AddMessage, call{
		params: chatParams("chat-1"),
		user:   "V",
		body:   `{"content":"late","created_at":"2025-01-01T09:00:00Z"}`,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "message_too_old", res.Error.Kind)

	status, _ = do(t, f.chat.CloseChat, call{params: chatParams("chat-1")})
	require.Equal(t, http.StatusOK, status)

	status, res = do(t, f.chat.AddMessage, call{
		params: chatParams("chat-1"),
		user:   "V",
		body:   `{"content":"again","created_at":"2025-01-01T11:00:00Z"}`,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "chat_closed", res.Error.Kind)
}

func TestChatHandler_MessageSender(t *testing.T) {
	f := newFixture()
	_, _ = do(t, f.chat.CreateChat, call{body: `{"chat_id":"chat-1","company_id":"co","visitor_id":"V"}`})
	status, _ := do(t, f.claim.ClaimChat, call{params: chatParams("chat-1"), user: "A1", body: `{"name":"Ana"}`})
	require.Equal(t, http.StatusCreated, status)

	status, res := do(t, f.chat.AddMessage, call{
		params: chatParams("chat-1"),
		user:   "V",
		role:   middleware.RoleVisitor,
		body:   `{"sender_id":"A1","content":"hi","created_at":"2025-01-01T10:00:00Z"}`,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", res.Error.Kind)

	var chat struct {
		Status string `json:"status"`
	}
	_, res = do(t, f.chat.GetChat, call{params: chatParams("chat-1")})
	require.NoError(t, json.Unmarshal(res.Data, &chat))
	assert.Equal(t, "pending", chat.Status)

	// the visitor's own message never activates the chat
	status, res = do(t, f.chat.AddMessage, call{
		params: chatParams("chat-1"),
		user:   "V",
		role:   middleware.RoleVisitor,
		body:   `{"content":"hi","created_at":"2025-01-01T10:00:00Z"}`,
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(res.Data, &chat))
	assert.Equal(t, "pending", chat.Status)

	status, res = do(t, f.chat.AddMessage, call{
		params: chatParams("chat-1"),
		user:   "A1",
		role:   middleware.RoleCommercial,
		body:   `{"content":"hello","created_at":"2025-01-01T10:01:00Z"}`,
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(res.Data, &chat))
	assert.Equal(t, "active", chat.Status)
}

func TestChatHandler_ParticipantFlags(t *testing.T) {
	f := newFixture()
	_, _ = do(t, f.chat.CreateChat, call{body: `{"chat_id":"chat-1","company_id":"co","visitor_id":"V"}`})
	params := map[string]string{"id": "chat-1", "participantID": "V"}

	status, _ := do(t, f.chat.SetTyping, call{params: params, body: `{"value":true}`})
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, f.chat.SetTyping, call{params: params, body: `{}`})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, f.chat.RenameParticipant, call{params: params, body: `{"name":"Valentina"}`})
	assert.Equal(t, http.StatusOK, status)

	status, res := do(t, f.chat.MarkSeen, call{params: map[string]string{"id": "chat-1", "participantID": "ghost"}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "participant_not_found", res.Error.Kind)
}

func TestClaimHandler_Flow(t *testing.T) {
	f := newFixture()
	_, _ = do(t, f.chat.CreateChat, call{body: `{"chat_id":"chat-1","company_id":"co","visitor_id":"V"}`})

	status, _ := do(t, f.claim.ClaimChat, call{params: chatParams("chat-1")})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, f.claim.ClaimChat, call{params: chatParams("chat-1"), user: "A1", body: `{"name":"Ana"}`})
	require.Equal(t, http.StatusCreated, status)

	status, res := do(t, f.claim.ClaimChat, call{params: chatParams("chat-1"), user: "A2"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "chat_already_claimed", res.Error.Kind)

	status, res = do(t, f.claim.GetChatClaim, call{params: chatParams("chat-1")})
	require.Equal(t, http.StatusOK, status)
	var active struct {
		ComercialID string `json:"comercial_id"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &active))
	assert.Equal(t, "A1", active.ComercialID)

	status, res = do(t, f.claim.ReleaseClaim, call{params: chatParams("chat-1"), user: "A2"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "unauthorized_claim_release", res.Error.Kind)

	status, _ = do(t, f.claim.ReleaseClaim, call{params: chatParams("chat-1"), user: "A1", query: "unassign=true"})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, f.claim.GetChatClaim, call{params: chatParams("chat-1")})
	assert.Equal(t, http.StatusNotFound, status)

	status, res = do(t, f.claim.ActiveChatIDs, call{})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(res.Data))
}

func TestClaimHandler_AutoAssign(t *testing.T) {
	f := newFixture()
	_, _ = do(t, f.chat.CreateChat, call{body: `{"chat_id":"chat-1","company_id":"co","visitor_id":"V"}`})

	status, _ := do(t, f.claim.AutoAssign, call{params: chatParams("chat-1")})
	assert.Equal(t, http.StatusAccepted, status)

	status, _ = do(t, f.presence.Heartbeat, call{params: map[string]string{"companyID": "co"}, user: "A1", body: `{"name":"Ana"}`})
	require.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, f.claim.AutoAssign, call{params: chatParams("chat-1")})
	require.Equal(t, http.StatusOK, status)

	status, res := do(t, f.claim.MyClaims, call{user: "A1"})
	require.Equal(t, http.StatusOK, status)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Data, &mine))
	assert.Len(t, mine, 1)
}

func TestCommandHandler(t *testing.T) {
	f := newFixture()

	status, _ := do(t, f.command.Execute, call{
		params: map[string]string{"name": usecase.CmdCreateChat},
		body:   `{"chat_id":"chat-9","company_id":"co","visitor_id":"V"}`,
	})
	require.Equal(t, http.StatusOK, status)

	status, res := do(t, f.command.Query, call{
		params: map[string]string{"name": usecase.QryGetChat},
		body:   `{"chat_id":"chat-9"}`,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(res.Data), `"chat-9"`)

	status, res = do(t, f.command.Execute, call{params: map[string]string{"name": "chat.explode"}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "handler_not_registered", res.Error.Kind)

	status, res = do(t, f.command.List, call{})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(res.Data), usecase.CmdClaimChat)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrChatNotFound, http.StatusNotFound},
		{domain.ErrChatAlreadyClaimed.Detail("chat-1"), http.StatusConflict},
		{domain.ErrUnauthorizedClaimRelease, http.StatusForbidden},
		{domain.ErrInvalidPayload, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
