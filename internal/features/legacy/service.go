package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-family/internal/features/assignment"
	"go-family/internal/features/hijri"
	"go-family/internal/features/role"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ImportService pulls role assignments out of the old Postgres backend and
// writes them into Mongo. The old system stored Gregorian dates only, so the
// Hijri mirrors are derived during import. Rows that would violate the
// one-active-grant-per-role rule are skipped and logged, never silently
// merged.
type ImportService interface {
	RunImport(ctx context.Context) (*ImportReport, error)
}

// ImportReport summarizes one import batch.
type ImportReport struct {
	BatchID  string    `json:"batch_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
}

type ImportServiceImpl struct {
	ConnStr        string
	RoleService    role.RoleService
	AssignmentRepo assignment.AssignmentRepository
	Logger         *zap.Logger
}

func NewImportService(
	connStr string,
	roleService role.RoleService,
	assignmentRepo assignment.AssignmentRepository,
	logger *zap.Logger,
) ImportService {
	return &ImportServiceImpl{
		ConnStr:        connStr,
		RoleService:    roleService,
		AssignmentRepo: assignmentRepo,
		Logger:         logger,
	}
}

type legacyRow struct {
	UserID    string
	RoleName  string
	StartDate time.Time
	EndDate   sql.NullTime
	IsActive  bool
	Notes     sql.NullString
	CreatedBy sql.NullString
}

func (s *ImportServiceImpl) RunImport(ctx context.Context) (*ImportReport, error) {
	report := &ImportReport{
		BatchID: uuid.NewString(),
		Started: time.Now(),
	}

	db, err := sql.Open("postgres", s.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to legacy postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping legacy postgres: %w", err)
	}

	rows, err := s.fetchRows(ctx, db)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		switch err := s.importRow(ctx, report.BatchID, row); {
		case err == nil:
			report.Imported++
		case assignment.IsConflict(err):
			report.Skipped++
			s.Logger.Warn("legacy assignment overlaps an imported grant, skipping",
				zap.String("batch_id", report.BatchID),
				zap.String("user_id", row.UserID),
				zap.String("role_name", row.RoleName))
		default:
			report.Failed++
			s.Logger.Error("legacy assignment import failed",
				zap.String("batch_id", report.BatchID),
				zap.String("user_id", row.UserID),
				zap.String("role_name", row.RoleName),
				zap.Error(err))
		}
	}

	report.Finished = time.Now()
	s.Logger.Info("legacy import finished",
		zap.String("batch_id", report.BatchID),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *ImportServiceImpl) fetchRows(ctx context.Context, db *sql.DB) ([]legacyRow, error) {
	const query = `
		SELECT a.user_id, r.role_name, a.start_date, a.end_date, a.is_active, a.notes, a.created_by
		FROM user_role_assignments a
		JOIN user_roles r ON r.id = a.role_id
		ORDER BY a.start_date`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy assignments: %w", err)
	}
	defer rows.Close()

	var out []legacyRow
	for rows.Next() {
		var row legacyRow
		if err := rows.Scan(&row.UserID, &row.RoleName, &row.StartDate, &row.EndDate, &row.IsActive, &row.Notes, &row.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan legacy assignment: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *ImportServiceImpl) importRow(ctx context.Context, batchID string, row legacyRow) error {
	r, err := s.RoleService.GetRoleByName(ctx, row.RoleName)
	if err != nil {
		return fmt.Errorf("unknown legacy role %q: %w", row.RoleName, err)
	}

	now := time.Now()
	start := row.StartDate.UTC().Truncate(24 * time.Hour)
	a := &assignment.Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         row.UserID,
		RoleID:         r.ID,
		StartGregorian: start,
		StartHijri:     hijri.ToHijri(start).String(),
		IsActive:       row.IsActive,
		AssignedBy:     "legacy-import:" + batchID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if row.EndDate.Valid {
		end := row.EndDate.Time.UTC().Truncate(24 * time.Hour)
		a.EndGregorian = &end
		h := hijri.ToHijri(end).String()
		a.EndHijri = h
	}
	if row.Notes.Valid {
		a.Notes = row.Notes.String
	}
	if row.CreatedBy.Valid && row.CreatedBy.String != "" {
		a.AssignedBy = row.CreatedBy.String
	}

	return s.AssignmentRepo.Insert(ctx, a)
}
