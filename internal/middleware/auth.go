package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

// NewAuthMiddleware trusts the identity headers injected by the API gateway.
// Session issuance and token verification live upstream; routes behind this
// middleware only need the resolved caller placed into the request context.
func NewAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("User-ID"))
		userEmail := strings.TrimSpace(c.Get("User-Email"))
		authorization := strings.TrimSpace(c.Get("Authorization"))

		if userID == "" || userEmail == "" || authorization == "" {
			return unauthorized(c)
		}

		userCtx := c.UserContext()
		if userCtx == nil {
			userCtx = context.Background()
		}

		userCtx = context.WithValue(userCtx, "UserID", userID)
		userCtx = context.WithValue(userCtx, "UserEmail", userEmail)
		userCtx = context.WithValue(userCtx, "Jwt", authorization)

		c.SetUserContext(userCtx)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	err := httperror.Unauthorized(
		"auth.unauthorized",
		"Authentication required",
		nil,
	)

	return c.Status(err.Status).JSON(fiber.Map{
		"success": false,
		"message": err.Message,
	})
}
