package middleware

import (
	"crypto/subtle"
	"strings"

	"job-agent/internal/domain/user"

	"github.com/gofiber/fiber/v3"
)

const CtxUserIDKey = "user_id"

// SessionView is what the guard needs from the session store.
type SessionView interface {
	User() (user.User, bool)
	Authenticated() bool
}

// SessionMiddleware rejects requests while no user is signed in. When a bridge
// token is configured, callers must also present it as a bearer token.
type SessionMiddleware struct {
	session     SessionView
	bridgeToken string
}

func NewSessionMiddleware(session SessionView, bridgeToken string) *SessionMiddleware {
	return &SessionMiddleware{session: session, bridgeToken: strings.TrimSpace(bridgeToken)}
}

// RequireBridgeToken checks only the bridge token.
func (m *SessionMiddleware) RequireBridgeToken() fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := m.checkBridgeToken(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireSession checks the bridge token and the signed-in user.
func (m *SessionMiddleware) RequireSession() fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := m.checkBridgeToken(c); err != nil {
			return err
		}
		if m.session == nil || !m.session.Authenticated() {
			return NewAppError(fiber.StatusUnauthorized, "Not signed in", nil, nil)
		}
		u, ok := m.session.User()
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Not signed in", nil, nil)
		}
		c.Locals(CtxUserIDKey, u.ID)
		return c.Next()
	}
}

func (m *SessionMiddleware) checkBridgeToken(c fiber.Ctx) error {
	if m.bridgeToken == "" {
		return nil
	}
	token, ok := bearerTokenFromHeader(c.Get("Authorization"))
	if !ok {
		// browsers cannot set headers on a websocket upgrade
		token = strings.TrimSpace(c.Query("token"))
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.bridgeToken)) != 1 {
		return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return nil
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
