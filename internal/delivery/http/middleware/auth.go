package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/utils"
)

// AdminAuth gates admin routes behind a bearer secret. An empty secret
// disables the routes entirely rather than leaving them open.
func AdminAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return utils.SendError(c, errors.ErrUnauthorized)
		}

		auth := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return utils.SendError(c, errors.ErrUnauthorized)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return utils.SendError(c, errors.ErrUnauthorized)
		}

		return c.Next()
	}
}
