package assignment

import (
	"context"
	"fmt"
	"time"

	"go-family/internal/features/hijri"
	"go-family/internal/features/role"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CacheInvalidator evicts a user's cached permission merges after a write.
type CacheInvalidator interface {
	Invalidate(userID string)
}

type AssignmentService interface {
	Assign(ctx context.Context, req AssignRequest, assignedBy string) (*Assignment, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Assignment, error)
	SoftDelete(ctx context.Context, id string, by string) error
	ListForUser(ctx context.Context, userID string, asOf time.Time) ([]WithStatus, error)
	ListAllActive(ctx context.Context, asOf time.Time) ([]WithStatus, error)
	SetCacheInvalidator(inv CacheInvalidator)
}

type AssignmentServiceImpl struct {
	Repo        AssignmentRepository
	RoleRepo    role.RoleRepository
	Users       UserDirectory
	Detector    OverlapDetector
	Logger      *zap.Logger
	invalidator CacheInvalidator
}

func NewAssignmentService(
	repo AssignmentRepository,
	roleRepo role.RoleRepository,
	users UserDirectory,
	detector OverlapDetector,
	logger *zap.Logger,
) AssignmentService {
	return &AssignmentServiceImpl{
		Repo:     repo,
		RoleRepo: roleRepo,
		Users:    users,
		Detector: detector,
		Logger:   logger,
	}
}

func (s *AssignmentServiceImpl) SetCacheInvalidator(inv CacheInvalidator) {
	s.invalidator = inv
}

// Assign validates the request, fast-fails on overlap and persists the new
// assignment. The store re-checks the overlap invariant transactionally, so
// a clean detector result here is optimistic, not authoritative.
func (s *AssignmentServiceImpl) Assign(ctx context.Context, req AssignRequest, assignedBy string) (*Assignment, error) {
	if req.UserID == "" || req.RoleID == "" {
		return nil, &ValidationError{Msg: "user_id and role_id are required"}
	}

	exists, err := s.Users.Exists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", req.UserID, ErrNotFound)
	}

	roleID, err := primitive.ObjectIDFromHex(req.RoleID)
	if err != nil {
		return nil, role.ErrRoleNotFound
	}
	rl, err := s.RoleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	start, end, startHijri, endHijri, err := resolveDates(req.StartGregorian, req.EndGregorian, req.StartHijri, req.EndHijri)
	if err != nil {
		return nil, err
	}

	candidate := Interval{Start: start, End: end}
	conflicts, err := s.Detector.Conflicts(ctx, req.UserID, roleID, candidate, nil)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{ConflictingIDs: conflicts}
	}

	now := time.Now()
	a := &Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         req.UserID,
		RoleID:         roleID,
		StartGregorian: start,
		EndGregorian:   end,
		StartHijri:     startHijri,
		EndHijri:       endHijri,
		Notes:          req.Notes,
		IsActive:       true,
		AssignedBy:     assignedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Repo.Insert(ctx, a); err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(req.UserID)
	}

	s.Logger.Info("role assigned",
		zap.String("assignment_id", a.ID.Hex()),
		zap.String("user_id", req.UserID),
		zap.String("role_name", rl.Name),
		zap.String("assigned_by", assignedBy))
	return a, nil
}

// Update applies partial changes. Changed dates are re-validated and
// re-checked for overlap exactly as a fresh assignment would be, and so is
// reactivation (is_active back to true).
func (s *AssignmentServiceImpl) Update(ctx context.Context, id string, req UpdateRequest) (*Assignment, error) {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	datesChanged := req.StartGregorian != nil || req.EndGregorian != nil ||
		req.StartHijri != nil || req.EndHijri != nil
	reactivating := req.IsActive != nil && *req.IsActive && !existing.IsActive

	if datesChanged {
		startG := existing.StartGregorian.Format(DateLayout)
		if req.StartGregorian != nil {
			startG = *req.StartGregorian
		}
		endG := ""
		if existing.EndGregorian != nil {
			endG = existing.EndGregorian.Format(DateLayout)
		}
		if req.EndGregorian != nil {
			endG = *req.EndGregorian
		}
		startH, endH := "", ""
		if req.StartHijri != nil {
			startH = *req.StartHijri
		}
		if req.EndHijri != nil {
			endH = *req.EndHijri
		}

		start, end, startHijri, endHijri, err := resolveDates(startG, endG, startH, endH)
		if err != nil {
			return nil, err
		}
		existing.StartGregorian = start
		existing.EndGregorian = end
		existing.StartHijri = startHijri
		existing.EndHijri = endHijri
	}

	if req.Notes != nil {
		existing.Notes = *req.Notes
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if (datesChanged || reactivating) && existing.IsActive {
		exclude := existing.ID
		conflicts, err := s.Detector.Conflicts(ctx, existing.UserID, existing.RoleID, existing.Interval(), &exclude)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, &ConflictError{ConflictingIDs: conflicts}
		}
	}

	existing.UpdatedAt = time.Now()
	if err := s.Repo.Replace(ctx, existing); err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(existing.UserID)
	}

	s.Logger.Info("role assignment updated", zap.String("assignment_id", id))
	return existing, nil
}

// SoftDelete retires an assignment. Calling it again on the same id
// succeeds; an unknown id is NotFound.
func (s *AssignmentServiceImpl) SoftDelete(ctx context.Context, id string, by string) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	found, err := s.Repo.SoftDelete(ctx, id, by)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(existing.UserID)
	}

	s.Logger.Info("role assignment revoked",
		zap.String("assignment_id", id),
		zap.String("revoked_by", by))
	return nil
}

// ListForUser returns every assignment of the user, active and inactive,
// annotated with its resolved status at asOf.
func (s *AssignmentServiceImpl) ListForUser(ctx context.Context, userID string, asOf time.Time) ([]WithStatus, error) {
	assignments, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return annotate(assignments, asOf), nil
}

// ListAllActive returns all is_active rows annotated with status, for the
// admin dashboard's grouped view.
func (s *AssignmentServiceImpl) ListAllActive(ctx context.Context, asOf time.Time) ([]WithStatus, error) {
	assignments, err := s.Repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return annotate(assignments, asOf), nil
}

func annotate(assignments []Assignment, asOf time.Time) []WithStatus {
	out := make([]WithStatus, 0, len(assignments))
	for i := range assignments {
		out = append(out, WithStatus{
			Assignment: assignments[i],
			Status:     ResolveStatus(&assignments[i], asOf),
		})
	}
	return out
}

// resolveDates turns the four optional wire dates into the canonical
// Gregorian interval plus Hijri mirrors. The Gregorian calendar is
// authoritative; a supplied Hijri date must agree with its Gregorian
// counterpart to within one day of the civil conversion.
func resolveDates(startG, endG, startH, endH string) (time.Time, *time.Time, string, string, error) {
	start, startHijri, err := resolveBound(startG, startH)
	if err != nil {
		return time.Time{}, nil, "", "", err
	}
	if start == nil {
		// Open start defaults to today.
		today := truncateDay(time.Now().UTC())
		start = &today
		startHijri = hijri.ToHijri(today).String()
	}

	end, endHijri, err := resolveBound(endG, endH)
	if err != nil {
		return time.Time{}, nil, "", "", err
	}

	if end != nil && !start.Before(*end) {
		return time.Time{}, nil, "", "", &ValidationError{
			Msg: fmt.Sprintf("start date %s must be before end date %s",
				start.Format(DateLayout), end.Format(DateLayout)),
		}
	}

	return *start, end, startHijri, endHijri, nil
}

// resolveBound reconciles one Gregorian/Hijri pair. Returns nil when neither
// calendar supplies the bound.
func resolveBound(gregorian, hijriStr string) (*time.Time, string, error) {
	var g *time.Time
	if gregorian != "" {
		parsed, err := time.ParseInLocation(DateLayout, gregorian, time.UTC)
		if err != nil {
			return nil, "", &ValidationError{Msg: fmt.Sprintf("invalid gregorian date %q: want YYYY-MM-DD", gregorian)}
		}
		g = &parsed
	}

	if hijriStr == "" {
		if g == nil {
			return nil, "", nil
		}
		return g, hijri.ToHijri(*g).String(), nil
	}

	h, err := hijri.Parse(hijriStr)
	if err != nil {
		return nil, "", &ConversionError{Value: hijriStr, Err: err}
	}
	converted := hijri.ToGregorian(h)

	if g == nil {
		return &converted, hijriStr, nil
	}

	diff := converted.Sub(*g)
	if diff < 0 {
		diff = -diff
	}
	if diff > 24*time.Hour {
		return nil, "", &ValidationError{
			Msg: fmt.Sprintf("hijri date %s does not match gregorian date %s", hijriStr, gregorian),
		}
	}
	return g, hijriStr, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
