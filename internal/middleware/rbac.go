package middleware

import (
	"context"
	"time"

	"go-family/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// PermissionChecker is the slice of the permission service the middleware
// needs; declared here so feature packages can depend on middleware without
// a cycle.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID string, path string, asOf time.Time) (bool, error)
}

var checker PermissionChecker

// SetPermissionChecker wires the merged-permission service in at startup.
func SetPermissionChecker(c PermissionChecker) {
	checker = c
}

// RequirePermission allows the request only when the caller holds the
// permission (directly or through all_access) at the current date.
func RequirePermission(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if checker == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		}

		allowed, err := checker.HasPermission(c.UserContext(), claims.UserID, requiredPermission, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		}

		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Insufficient permissions",
			})
		}

		return c.Next()
	}
}
