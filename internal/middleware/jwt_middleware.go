package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"lapak/internal/services"
)

// LocalsUserID is the context key under which the authenticated user's ID is
// stored for downstream handlers.
const LocalsUserID = "user_id"

// AuthRequired is a Fiber middleware that extracts the bearer token from the
// Authorization header, verifies it, and attaches the resolved user ID to
// the request context. Both "Bearer <token>" and a raw token are accepted.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. No token provided.",
			})
		}

		tokenString := authHeader
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = strings.TrimSpace(parts[1])
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. Invalid token format.",
			})
		}

		userID, err := authService.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrMisconfigured) {
				log.Printf("Auth middleware error: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": "Server misconfiguration. JWT secret missing.",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals(LocalsUserID, userID)
		return c.Next()
	}
}
