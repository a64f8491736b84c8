package cron_feature

import (
	"context"
	"time"

	"go-family/internal/features/assignment"
	"go-family/internal/features/permission"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// expiryWarningWindow is how far ahead the sweep looks for ending grants.
const expiryWarningWindow = 7 * 24 * time.Hour

// SweepService runs the daily assignment sweep: it logs grants that are
// about to expire so administrators can renew them, and flushes the
// permission cache across the day boundary (a grant's status can flip from
// pending to active, or active to expired, with no write happening).
type SweepService interface {
	Start() error
	Stop()
	RunSweep(ctx context.Context) error
}

type SweepServiceImpl struct {
	AssignmentRepo    assignment.AssignmentRepository
	PermissionService permission.PermissionService
	Logger            *zap.Logger

	scheduler *cron.Cron
}

func NewSweepService(
	assignmentRepo assignment.AssignmentRepository,
	permissionService permission.PermissionService,
	logger *zap.Logger,
) SweepService {
	return &SweepServiceImpl{
		AssignmentRepo:    assignmentRepo,
		PermissionService: permissionService,
		Logger:            logger,
	}
}

// Start schedules the sweep shortly after midnight every day.
func (s *SweepServiceImpl) Start() error {
	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc("5 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.RunSweep(ctx); err != nil {
			s.Logger.Error("assignment sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

func (s *SweepServiceImpl) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunSweep walks active assignments once. Exposed for manual runs and tests.
func (s *SweepServiceImpl) RunSweep(ctx context.Context) error {
	now := time.Now()
	active, err := s.AssignmentRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	expiringSoon := 0
	for i := range active {
		a := &active[i]
		if assignment.ResolveStatus(a, now) != assignment.StatusActive {
			continue
		}
		if a.EndGregorian == nil {
			continue
		}
		if a.EndGregorian.Sub(now) <= expiryWarningWindow {
			expiringSoon++
			s.Logger.Info("role assignment expiring soon",
				zap.String("assignment_id", a.ID.Hex()),
				zap.String("user_id", a.UserID),
				zap.String("end_date", a.EndGregorian.Format(assignment.DateLayout)))
		}
	}

	// Status transitions happen at day boundaries without any write, so
	// cached merges from yesterday may be stale.
	s.PermissionService.InvalidateAll()

	s.Logger.Info("assignment sweep finished",
		zap.Int("active", len(active)),
		zap.Int("expiring_within_7d", expiringSoon))
	return nil
}
