package role

import (
	"github.com/gofiber/fiber/v2"
)

type RoleController struct {
	RoleService RoleService
}

func NewRoleController(roleService RoleService) *RoleController {
	return &RoleController{
		RoleService: roleService,
	}
}

// ListRoles godoc
// @Summary      List available roles
// @Description  Get all roles available for assignment, ordered by priority
// @Tags         roles
// @Produce      json
// @Success      200  {array} Role
// @Failure      500  {string} string "Failed to fetch roles"
// @Router       /api/multi-role/roles [get]
func (ctrl *RoleController) ListRoles(c *fiber.Ctx) error {
	roles, err := ctrl.RoleService.ListRoles(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch roles",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    roles,
	})
}

// CreateRole godoc
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        role body Role true "Role definition"
// @Success      201  {object} Role
// @Failure      400  {string} string "Invalid request body"
// @Router       /api/multi-role/roles [post]
func (ctrl *RoleController) CreateRole(c *fiber.Ctx) error {
	var r Role
	if err := c.BodyParser(&r); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	created, err := ctrl.RoleService.CreateRole(c.UserContext(), &r)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

// UpdatePermissions godoc
// @Summary      Replace a role's permission tree
// @Description  Takes effect immediately for all holders of the role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID"
// @Param        permissions body PermissionTree true "Permission tree"
// @Success      200  {string} string "ok"
// @Failure      404  {string} string "Role not found"
// @Router       /api/multi-role/roles/{id}/permissions [put]
func (ctrl *RoleController) UpdatePermissions(c *fiber.Ctx) error {
	var tree PermissionTree
	if err := c.BodyParser(&tree); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if err := ctrl.RoleService.UpdatePermissions(c.UserContext(), c.Params("id"), tree); err != nil {
		if err == ErrRoleNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "تم تحديث صلاحيات الدور بنجاح",
	})
}

// RetireRole godoc
// @Summary      Retire a role definition
// @Tags         roles
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      200  {string} string "ok"
// @Failure      404  {string} string "Role not found"
// @Router       /api/multi-role/roles/{id} [delete]
func (ctrl *RoleController) RetireRole(c *fiber.Ctx) error {
	if err := ctrl.RoleService.RetireRole(c.UserContext(), c.Params("id")); err != nil {
		if err == ErrRoleNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Role not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "تم إيقاف الدور بنجاح",
	})
}
