package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/spec-kit/workflow-service/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// Middleware extracts the acting subject from bearer tokens.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces a valid bearer token and stores the actor id in the
// request context.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	actor, err := m.tokens.ParseActor(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext returns the authenticated actor id.
func ActorFromContext(c *fiber.Ctx) (string, bool) {
	actor, ok := c.Locals(actorKey).(string)
	return actor, ok && actor != ""
}

// OpsKeyGuard protects admin endpoints with an operator API key. The key is
// compared against a bcrypt hash configured in the environment, never stored
// in clear.
type OpsKeyGuard struct {
	hash string
}

// NewOpsKeyGuard constructs the guard.
func NewOpsKeyGuard(hash string) *OpsKeyGuard {
	return &OpsKeyGuard{hash: hash}
}

// Handle rejects requests without a matching X-Ops-Key header.
func (g *OpsKeyGuard) Handle(c *fiber.Ctx) error {
	if g.hash == "" {
		return apperrors.NewForbidden("ops key not configured")
	}
	key := c.Get("X-Ops-Key")
	if key == "" {
		return apperrors.NewUnauthorized("missing ops key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(g.hash), []byte(key)); err != nil {
		return apperrors.NewForbidden("invalid ops key")
	}
	return c.Next()
}
