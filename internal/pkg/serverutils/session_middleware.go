package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionHeader   = "X-Session-Id"
	SessionLocalKey = "session_key"
)

// SessionMiddleware resolves the caller's session key. The key is an opaque,
// client-chosen string; a browser keeps one per tab so each user session gets
// an isolated conversation store. When the header is absent a fresh key is
// minted and echoed back so the client can adopt it.
func SessionMiddleware(ctx *fiber.Ctx) error {
	sessionKey := ctx.Get(SessionHeader)
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	ctx.Locals(SessionLocalKey, sessionKey)
	ctx.Set(SessionHeader, sessionKey)
	return ctx.Next()
}
