package report

import (
	"go-family/internal/config"
	"go-family/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	Controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		Controller: controller,
		config:     config,
	}
}

func (a *ReportApi) Setup(app *fiber.App) {
	api := app.Group("/api")
	RegisterRoutes(api, a.Controller, a.config)
}

func RegisterRoutes(api fiber.Router, ctrl *ReportController, config *config.Config) {
	multiRole := api.Group("/multi-role", middleware.AuthMiddleware(config.SkipAuth))

	multiRole.Get("/export", middleware.RequirePermission("roles.manage"), ctrl.ExportAssignments)
}
