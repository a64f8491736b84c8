package report

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{
		ReportService: reportService,
	}
}

// ExportAssignments godoc
// @Summary      Export role assignments as xlsx
// @Description  Exports with both Gregorian and Hijri date columns
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        user_id query string false "Limit to one user"
// @Success      200  {file} file
// @Router       /api/multi-role/export [get]
func (ctrl *ReportController) ExportAssignments(c *fiber.Ctx) error {
	data, filename, err := ctrl.ReportService.ExportAssignments(c.UserContext(), c.Query("user_id"), time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to export assignments",
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
