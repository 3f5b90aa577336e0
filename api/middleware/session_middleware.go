package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/nilotpaul/go-fitsync/config"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/util"
)

type SessionMiddleware struct {
	env config.EnvConfig
}

func NewSessionMiddleware(env config.EnvConfig) *SessionMiddleware {
	return &SessionMiddleware{
		env: env,
	}
}

// SessionMiddleware decodes the session cookie into a user id local. The
// cookie carries only the opaque app user id; provider tokens never reach
// the client. Requests without a cookie pass through unauthenticated.
func (m *SessionMiddleware) SessionMiddleware(c *fiber.Ctx) error {
	token := util.GetSessionToken(c)
	if len(token) == 0 {
		return c.Next()
	}

	decoded, err := util.VerifyAndDecodeSessionToken(token, m.env.SessionSecret)
	if err != nil {
		// A garbled or forged cookie is dropped rather than blocking the
		// request; the user simply reads as signed out.
		util.ResetSession(c, m.env.Domain)
		return c.Next()
	}

	c.Locals(setting.LocalUserIDKey, decoded.UserID)

	return c.Next()
}

// WithSession blocks access for requests without a valid session.
func (m *SessionMiddleware) WithSession(c *fiber.Ctx) error {
	if len(UserID(c)) == 0 {
		return util.NewAppError(
			http.StatusUnauthorized,
			"no session found",
		)
	}

	return c.Next()
}

// UserID returns the session's user id, or "" when unauthenticated.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(setting.LocalUserIDKey).(string)
	return userID
}
