package assignment

import (
	"go-family/internal/config"
	"go-family/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AssignmentApi struct {
	Controller *AssignmentController
	config     *config.Config
}

func NewAssignmentApi(controller *AssignmentController, config *config.Config) *AssignmentApi {
	return &AssignmentApi{
		Controller: controller,
		config:     config,
	}
}

func (a *AssignmentApi) Setup(app *fiber.App) {
	api := app.Group("/api")
	RegisterRoutes(api, a.Controller, a.config)
}

// RegisterRoutes registers the multi-role assignment routes. Managing
// assignments requires the roles.manage permission; listing needs auth only.
func RegisterRoutes(api fiber.Router, ctrl *AssignmentController, config *config.Config) {
	multiRole := api.Group("/multi-role", middleware.AuthMiddleware(config.SkipAuth))

	multiRole.Post("/assign", middleware.RequirePermission("roles.manage"), ctrl.Assign)
	multiRole.Put("/assignments/:assignmentId", middleware.RequirePermission("roles.manage"), ctrl.Update)
	multiRole.Delete("/assignments/:assignmentId", middleware.RequirePermission("roles.manage"), ctrl.Revoke)
	multiRole.Get("/users/:userId/roles", middleware.RequirePermission("roles.manage"), ctrl.ListForUser)
	multiRole.Get("/all-assignments", middleware.RequirePermission("roles.manage"), ctrl.ListAll)
}
