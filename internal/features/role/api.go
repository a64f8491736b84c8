package role

import (
	"go-family/internal/config"
	"go-family/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleApi struct {
	Controller *RoleController
	config     *config.Config
}

func NewRoleApi(controller *RoleController, config *config.Config) *RoleApi {
	return &RoleApi{
		Controller: controller,
		config:     config,
	}
}

func (a *RoleApi) Setup(app *fiber.App) {
	api := app.Group("/api")
	RegisterRoutes(api, a.Controller, a.config)
}

// RegisterRoutes registers role-definition routes under /api/multi-role.
func RegisterRoutes(api fiber.Router, ctrl *RoleController, config *config.Config) {
	roles := api.Group("/multi-role/roles", middleware.AuthMiddleware(config.SkipAuth))

	roles.Get("/", ctrl.ListRoles)
	roles.Post("/", middleware.RequirePermission("roles.manage"), ctrl.CreateRole)
	roles.Put("/:id/permissions", middleware.RequirePermission("roles.manage"), ctrl.UpdatePermissions)
	roles.Delete("/:id", middleware.RequirePermission("roles.manage"), ctrl.RetireRole)
}
