package assignment

import (
	"errors"
	"time"

	"go-family/internal/features/role"
	"go-family/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type AssignmentController struct {
	AssignmentService AssignmentService
}

func NewAssignmentController(assignmentService AssignmentService) *AssignmentController {
	return &AssignmentController{
		AssignmentService: assignmentService,
	}
}

// Assign godoc
// @Summary      Assign a role to a user
// @Description  Creates a time-bounded role assignment; either calendar's dates may be supplied
// @Tags         multi-role
// @Accept       json
// @Produce      json
// @Param        assignment body AssignRequest true "Assignment request"
// @Success      201  {object} Assignment
// @Failure      400  {string} string "Validation failed"
// @Failure      404  {string} string "User or role not found"
// @Failure      409  {string} string "Overlapping assignment"
// @Router       /api/multi-role/assign [post]
func (ctrl *AssignmentController) Assign(c *fiber.Ctx) error {
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	assignedBy := ""
	if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		assignedBy = claims.UserID
	}

	created, err := ctrl.AssignmentService.Assign(c.UserContext(), req, assignedBy)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
		"message": "تم تعيين الصلاحية للمستخدم بنجاح",
	})
}

// Update godoc
// @Summary      Update a role assignment
// @Description  Changed dates are re-validated and re-checked for overlap
// @Tags         multi-role
// @Accept       json
// @Produce      json
// @Param        assignmentId path string true "Assignment ID"
// @Param        fields body UpdateRequest true "Partial fields"
// @Success      200  {object} Assignment
// @Failure      404  {string} string "Assignment not found"
// @Failure      409  {string} string "Overlapping assignment"
// @Router       /api/multi-role/assignments/{assignmentId} [put]
func (ctrl *AssignmentController) Update(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	updated, err := ctrl.AssignmentService.Update(c.UserContext(), c.Params("assignmentId"), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    updated,
		"message": "تم تحديث تعيين الصلاحية بنجاح",
	})
}

// Revoke godoc
// @Summary      Revoke a role assignment (soft delete)
// @Tags         multi-role
// @Produce      json
// @Param        assignmentId path string true "Assignment ID"
// @Success      200  {string} string "ok"
// @Failure      404  {string} string "Assignment not found"
// @Router       /api/multi-role/assignments/{assignmentId} [delete]
func (ctrl *AssignmentController) Revoke(c *fiber.Ctx) error {
	revokedBy := ""
	if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		revokedBy = claims.UserID
	}

	if err := ctrl.AssignmentService.SoftDelete(c.UserContext(), c.Params("assignmentId"), revokedBy); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "تم إلغاء تعيين الصلاحية بنجاح",
	})
}

// ListForUser godoc
// @Summary      List a user's role assignments
// @Description  Returns every assignment, active and inactive, with its resolved status
// @Tags         multi-role
// @Produce      json
// @Param        userId path string true "User ID"
// @Param        as_of query string false "Status as-of date (YYYY-MM-DD, default today)"
// @Success      200  {array} WithStatus
// @Router       /api/multi-role/users/{userId}/roles [get]
func (ctrl *AssignmentController) ListForUser(c *fiber.Ctx) error {
	asOf, err := parseAsOf(c.Query("as_of"))
	if err != nil {
		return respondError(c, err)
	}

	assignments, err := ctrl.AssignmentService.ListForUser(c.UserContext(), c.Params("userId"), asOf)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    assignments,
		"count":   len(assignments),
	})
}

// ListAll godoc
// @Summary      List all users with active role assignments
// @Tags         multi-role
// @Produce      json
// @Success      200  {object} map[string]any
// @Router       /api/multi-role/all-assignments [get]
func (ctrl *AssignmentController) ListAll(c *fiber.Ctx) error {
	asOf, err := parseAsOf(c.Query("as_of"))
	if err != nil {
		return respondError(c, err)
	}

	assignments, err := ctrl.AssignmentService.ListAllActive(c.UserContext(), asOf)
	if err != nil {
		return respondError(c, err)
	}

	// Group by user for the dashboard view
	byUser := make(map[string][]WithStatus)
	order := make([]string, 0)
	for _, a := range assignments {
		if _, seen := byUser[a.UserID]; !seen {
			order = append(order, a.UserID)
		}
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}

	users := make([]fiber.Map, 0, len(order))
	for _, uid := range order {
		users = append(users, fiber.Map{
			"user_id": uid,
			"roles":   byUser[uid],
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"users":             users,
			"total_users":       len(users),
			"total_assignments": len(assignments),
		},
	})
}

func parseAsOf(q string) (time.Time, error) {
	if q == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(DateLayout, q, time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{Msg: "invalid as_of date: want YYYY-MM-DD"}
	}
	return t, nil
}

// respondError maps the engine's error taxonomy to HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":              false,
			"error":                conflict.Error(),
			"existing_assignments": conflict.ConflictingIDs,
		})
	}
	if IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, role.ErrRoleNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Internal server error",
	})
}
