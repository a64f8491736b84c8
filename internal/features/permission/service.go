package permission

import (
	"context"
	"strings"
	"time"

	"go-family/internal/features/assignment"
	"go-family/internal/features/role"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheSweep   = 10 * time.Minute
	cacheKeySep  = "|"
	dateCacheFmt = "2006-01-02"
)

type PermissionService interface {
	MergedPermissions(ctx context.Context, userID string, asOf time.Time) (role.PermissionTree, error)
	HasPermission(ctx context.Context, userID string, path string, asOf time.Time) (bool, error)
	ActiveRoles(ctx context.Context, userID string, asOf time.Time) ([]assignment.WithStatus, error)
	Invalidate(userID string)
	InvalidateAll()
}

type PermissionServiceImpl struct {
	AssignmentRepo assignment.AssignmentRepository
	RoleRepo       role.RoleRepository
	Logger         *zap.Logger
	cache          *gocache.Cache
}

func NewPermissionService(
	assignmentRepo assignment.AssignmentRepository,
	roleRepo role.RoleRepository,
	logger *zap.Logger,
) PermissionService {
	return &PermissionServiceImpl{
		AssignmentRepo: assignmentRepo,
		RoleRepo:       roleRepo,
		Logger:         logger,
		cache:          gocache.New(cacheTTL, cacheSweep),
	}
}

// ActiveRoles returns the assignments whose resolved status at asOf is
// active. Both the authorization check and the dashboards use it.
func (s *PermissionServiceImpl) ActiveRoles(ctx context.Context, userID string, asOf time.Time) ([]assignment.WithStatus, error) {
	all, err := s.AssignmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var active []assignment.WithStatus
	for i := range all {
		if assignment.ResolveStatus(&all[i], asOf) == assignment.StatusActive {
			active = append(active, assignment.WithStatus{
				Assignment: all[i],
				Status:     assignment.StatusActive,
			})
		}
	}
	return active, nil
}

// MergedPermissions computes the union of permissions granted by every role
// active for the user at asOf. Retired role definitions contribute nothing.
// Results are cached per (user, day) and evicted on assignment writes.
func (s *PermissionServiceImpl) MergedPermissions(ctx context.Context, userID string, asOf time.Time) (role.PermissionTree, error) {
	key := cacheKey(userID, asOf)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(role.PermissionTree), nil
	}

	active, err := s.ActiveRoles(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}

	trees := make([]role.PermissionTree, 0, len(active))
	for _, a := range active {
		rl, err := s.RoleRepo.FindByID(ctx, a.RoleID.Hex())
		if err != nil {
			if err == role.ErrRoleNotFound {
				s.Logger.Warn("assignment references missing role",
					zap.String("assignment_id", a.ID.Hex()),
					zap.String("role_id", a.RoleID.Hex()))
				continue
			}
			return nil, err
		}
		if !rl.IsActive {
			continue
		}
		trees = append(trees, rl.Permissions)
	}

	merged := Merge(trees...)
	s.cache.Set(key, merged, gocache.DefaultExpiration)
	return merged, nil
}

// HasPermission tests truthiness at a dotted path in the merged tree. An
// absent path is false, never an error.
func (s *PermissionServiceImpl) HasPermission(ctx context.Context, userID string, path string, asOf time.Time) (bool, error) {
	merged, err := s.MergedPermissions(ctx, userID, asOf)
	if err != nil {
		return false, err
	}

	if v, ok := merged[role.AllAccessKey]; ok && role.Truthy(v) {
		return true, nil
	}

	v, ok := merged.Lookup(path)
	if !ok {
		return false, nil
	}
	return role.Truthy(v), nil
}

// Invalidate drops every cached merge for one user.
func (s *PermissionServiceImpl) Invalidate(userID string) {
	prefix := userID + cacheKeySep
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}

// InvalidateAll drops the whole cache; used when a role definition changes.
func (s *PermissionServiceImpl) InvalidateAll() {
	s.cache.Flush()
}

func cacheKey(userID string, asOf time.Time) string {
	return userID + cacheKeySep + asOf.UTC().Format(dateCacheFmt)
}
