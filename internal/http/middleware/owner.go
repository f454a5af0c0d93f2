package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader carries the authenticated user's id, set by the gateway
	// in front of the service.
	UserIDHeader = "X-User-ID"
	// UserNameHeader is the display name used in outgoing emails.
	UserNameHeader = "X-User-Name"
	// AuthorizationHeader holds the bearer token forwarded to the pivot backend.
	AuthorizationHeader = "Authorization"

	UserIDLocalKey   = "user_id"
	UserNameLocalKey = "user_name"
	TokenLocalKey    = "token"
)

// Owner extracts the caller identity. Requests without X-User-ID are
// rejected through onMissing, which writes the error response.
func Owner(onMissing func(c *fiber.Ctx) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(UserIDHeader))
		if id == "" {
			return onMissing(c)
		}
		c.Locals(UserIDLocalKey, id)
		c.Locals(UserNameLocalKey, strings.TrimSpace(c.Get(UserNameHeader)))
		c.Locals(TokenLocalKey, c.Get(AuthorizationHeader))
		return c.Next()
	}
}

// UserID returns the id stored by Owner.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}

// UserName returns the display name stored by Owner.
func UserName(c *fiber.Ctx) string {
	name, _ := c.Locals(UserNameLocalKey).(string)
	return name
}

// Token returns the raw Authorization header stored by Owner.
func Token(c *fiber.Ctx) string {
	tok, _ := c.Locals(TokenLocalKey).(string)
	return tok
}
