package report

import (
	"context"
	"strings"
	"time"

	"go-family/internal/features/assignment"
	"go-family/internal/features/hijri"
	"go-family/internal/features/role"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ReportService interface {
	ExportAssignments(ctx context.Context, userID string, asOf time.Time) ([]byte, string, error)
}

type ReportServiceImpl struct {
	AssignmentService assignment.AssignmentService
	RoleRepo          role.RoleRepository
	Logger            *zap.Logger
}

func NewReportService(assignmentService assignment.AssignmentService, roleRepo role.RoleRepository, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		AssignmentService: assignmentService,
		RoleRepo:          roleRepo,
		Logger:            logger,
	}
}

var exportColumns = []string{
	"user_id", "role", "role_ar", "status",
	"start_gregorian", "end_gregorian", "start_hijri", "end_hijri", "notes",
}

// ExportAssignments builds an xlsx workbook of role assignments with both
// calendars, the Hijri side rendered in Arabic. An empty userID exports all
// active assignments.
func (s *ReportServiceImpl) ExportAssignments(ctx context.Context, userID string, asOf time.Time) ([]byte, string, error) {
	var rows []assignment.WithStatus
	var err error
	if userID == "" {
		rows, err = s.AssignmentService.ListAllActive(ctx, asOf)
	} else {
		rows, err = s.AssignmentService.ListForUser(ctx, userID, asOf)
	}
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Role Assignments"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, a := range rows {
		record := s.exportRow(ctx, a)
		for colIdx, col := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, record[col])
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := "role-assignments"
	if userID != "" {
		filename += "-" + userID
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		filename += ".xlsx"
	}

	s.Logger.Info("assignments exported",
		zap.String("user_id", userID),
		zap.Int("rows", len(rows)))
	return buffer.Bytes(), filename, nil
}

func (s *ReportServiceImpl) exportRow(ctx context.Context, a assignment.WithStatus) map[string]any {
	roleName, roleNameAr := a.RoleID.Hex(), ""
	if rl, err := s.RoleRepo.FindByID(ctx, a.RoleID.Hex()); err == nil {
		roleName, roleNameAr = rl.Name, rl.NameArabic
	}

	endG, endH := "", ""
	if a.EndGregorian != nil {
		endG = a.EndGregorian.Format(assignment.DateLayout)
	}
	if a.EndHijri != "" {
		if d, err := hijri.Parse(a.EndHijri); err == nil {
			endH = hijri.FormatArabic(d)
		}
	}
	startH := a.StartHijri
	if d, err := hijri.Parse(a.StartHijri); err == nil {
		startH = hijri.FormatArabic(d)
	}

	return map[string]any{
		"user_id":         a.UserID,
		"role":            roleName,
		"role_ar":         roleNameAr,
		"status":          string(a.Status),
		"start_gregorian": a.StartGregorian.Format(assignment.DateLayout),
		"end_gregorian":   endG,
		"start_hijri":     startH,
		"end_hijri":       endH,
		"notes":           a.Notes,
	}
}
