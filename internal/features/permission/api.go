package permission

import (
	"go-family/internal/config"
	"go-family/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PermissionApi struct {
	Controller *PermissionController
	config     *config.Config
}

func NewPermissionApi(controller *PermissionController, config *config.Config) *PermissionApi {
	return &PermissionApi{
		Controller: controller,
		config:     config,
	}
}

func (a *PermissionApi) Setup(app *fiber.App) {
	api := app.Group("/api")
	RegisterRoutes(api, a.Controller, a.config)
}

// RegisterRoutes registers permission-query routes. my-roles only needs
// authentication; the admin check endpoint needs management rights.
func RegisterRoutes(api fiber.Router, ctrl *PermissionController, config *config.Config) {
	multiRole := api.Group("/multi-role", middleware.AuthMiddleware(config.SkipAuth))

	multiRole.Get("/my-roles", ctrl.MyRoles)
	multiRole.Get("/users/:userId/check", middleware.RequirePermission("roles.manage"), ctrl.CheckPermission)
}
