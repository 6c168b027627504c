package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authTestApp(middleware *Middleware) *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.Handle, func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(actor)
	})
	return app
}

func TestMiddlewareAcceptsValidBearer(t *testing.T) {
	middleware := NewMiddleware(NewTokenManager("test-secret"))
	app := authTestApp(middleware)
	token := signToken(t, "test-secret", "user-7", time.Now().Add(time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	middleware := NewMiddleware(NewTokenManager("test-secret"))
	app := authTestApp(middleware)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	require.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsMalformedHeader(t *testing.T) {
	middleware := NewMiddleware(NewTokenManager("test-secret"))
	app := authTestApp(middleware)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}

func opsTestApp(guard *OpsKeyGuard) *fiber.App {
	app := fiber.New()
	app.Post("/admin", guard.Handle, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestOpsKeyGuardAcceptsMatchingKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("ops-key-123"), bcrypt.MinCost)
	require.NoError(t, err)
	app := opsTestApp(NewOpsKeyGuard(string(hash)))

	req := httptest.NewRequest("POST", "/admin", nil)
	req.Header.Set("X-Ops-Key", "ops-key-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOpsKeyGuardRejectsWrongKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("ops-key-123"), bcrypt.MinCost)
	require.NoError(t, err)
	app := opsTestApp(NewOpsKeyGuard(string(hash)))

	req := httptest.NewRequest("POST", "/admin", nil)
	req.Header.Set("X-Ops-Key", "wrong")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}

func TestOpsKeyGuardRejectsWhenUnconfigured(t *testing.T) {
	app := opsTestApp(NewOpsKeyGuard(""))

	req := httptest.NewRequest("POST", "/admin", nil)
	req.Header.Set("X-Ops-Key", "anything")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}
