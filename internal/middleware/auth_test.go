package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const secret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTAuth(t *testing.T) {
	var seen struct{ user, role, company string }
	next := func(ctx *fasthttp.RequestCtx) {
		seen.user = string(ctx.Request.Header.Peek(HeaderUserID))
		seen.role = string(ctx.Request.Header.Peek(HeaderUserRole))
		seen.company = string(ctx.Request.Header.Peek(HeaderCompanyID))
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
	handler := JWTAuth(secret, nil)(next)

	t.Run("valid token exposes claims", func(t *testing.T) {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"user_id": "A1", "role": RoleCommercial, "company_id": "co"}))
		handler(&ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "A1", seen.user)
		assert.Equal(t, RoleCommercial, seen.role)
		assert.Equal(t, "co", seen.company)
	})

	t.Run("missing token", func(t *testing.T) {
		var ctx fasthttp.RequestCtx
		handler(&ctx)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("forged identity header is dropped", func(t *testing.T) {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"role": RoleVisitor}))
		ctx.Request.Header.Set(HeaderUserID, "someone-else")
		handler(&ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Empty(t, seen.user)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "A1"}).SignedString([]byte("other"))
		require.NoError(t, err)
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.Set("Authorization", token)
		handler(&ctx)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleCommercial)(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})

	var visitor fasthttp.RequestCtx
	visitor.Request.Header.Set(HeaderUserRole, RoleVisitor)
	handler(&visitor)
	assert.Equal(t, fasthttp.StatusForbidden, visitor.Response.StatusCode())

	var agent fasthttp.RequestCtx
	agent.Request.Header.Set(HeaderUserRole, RoleCommercial)
	handler(&agent)
	assert.Equal(t, fasthttp.StatusNoContent, agent.Response.StatusCode())
}
