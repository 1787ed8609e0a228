package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the payment gateway's callback
// Authorization header against the configured merchant key. Signature
// cryptography over the payload is the gateway's concern; the callback
// channel itself is authenticated here.
func GatewayAuthMiddleware(merchantKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Basic") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid gateway authorization")
		}

		decoded, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid gateway authorization")
		}

		if subtle.ConstantTimeCompare(decoded, []byte(merchantKey)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid gateway authorization")
		}

		return c.Next()
	}
}
