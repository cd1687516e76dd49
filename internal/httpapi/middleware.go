package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"worktime/internal/apperr"
	"worktime/internal/service"
)

const userIDKey = "userId"

// authenticate requires a valid bearer token and stores its user id in Locals.
func authenticate(auth *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		token := ""
		if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(rest)
		}
		if header != "" && token == "" {
			return apperr.ErrTokenInvalid
		}

		userID, err := auth.Authenticate(token)
		if err != nil {
			return err
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
