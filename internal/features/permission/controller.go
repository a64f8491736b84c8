package permission

import (
	"time"

	"go-family/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PermissionController struct {
	PermissionService PermissionService
}

func NewPermissionController(permissionService PermissionService) *PermissionController {
	return &PermissionController{
		PermissionService: permissionService,
	}
}

// MyRoles godoc
// @Summary      Active roles and merged permissions for the caller
// @Tags         multi-role
// @Produce      json
// @Success      200  {object} map[string]any
// @Failure      401  {string} string "Unauthorized"
// @Router       /api/multi-role/my-roles [get]
func (ctrl *PermissionController) MyRoles(c *fiber.Ctx) error {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	now := time.Now()
	active, err := ctrl.PermissionService.ActiveRoles(c.UserContext(), claims.UserID, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch active roles",
		})
	}

	merged, err := ctrl.PermissionService.MergedPermissions(c.UserContext(), claims.UserID, now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to compute merged permissions",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"active_roles":       active,
			"merged_permissions": merged,
			"role_count":         len(active),
		},
	})
}

// CheckPermission godoc
// @Summary      Test a single permission path for a user
// @Tags         multi-role
// @Produce      json
// @Param        userId path string true "User ID"
// @Param        path query string true "Dotted permission path (e.g. members.view)"
// @Param        as_of query string false "As-of date (YYYY-MM-DD, default today)"
// @Success      200  {object} map[string]any
// @Router       /api/multi-role/users/{userId}/check [get]
func (ctrl *PermissionController) CheckPermission(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "path query parameter is required",
		})
	}

	asOf := time.Now()
	if q := c.Query("as_of"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, time.UTC)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid as_of date: want YYYY-MM-DD",
			})
		}
		asOf = parsed
	}

	allowed, err := ctrl.PermissionService.HasPermission(c.UserContext(), c.Params("userId"), path, asOf)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to check permission",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"path":    path,
			"allowed": allowed,
		},
	})
}
