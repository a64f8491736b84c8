package role

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CacheInvalidator lets the permission layer drop cached merges when a
// role's permission tree changes, without a package cycle.
type CacheInvalidator interface {
	InvalidateAll()
}

type RoleService interface {
	CreateRole(ctx context.Context, role *Role) (*Role, error)
	GetRoleByID(ctx context.Context, id string) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdatePermissions(ctx context.Context, id string, permissions PermissionTree) error
	RetireRole(ctx context.Context, id string) error
	SetCacheInvalidator(inv CacheInvalidator)
}

type RoleServiceImpl struct {
	RoleRepo    RoleRepository
	Logger      *zap.Logger
	invalidator CacheInvalidator
}

func NewRoleService(roleRepo RoleRepository, logger *zap.Logger) RoleService {
	return &RoleServiceImpl{
		RoleRepo: roleRepo,
		Logger:   logger,
	}
}

func (s *RoleServiceImpl) SetCacheInvalidator(inv CacheInvalidator) {
	s.invalidator = inv
}

func (s *RoleServiceImpl) CreateRole(ctx context.Context, role *Role) (*Role, error) {
	if role.Name == "" {
		return nil, fmt.Errorf("role name is required")
	}
	if role.Permissions == nil {
		role.Permissions = PermissionTree{}
	}
	role.IsActive = true
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()

	if err := s.RoleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	s.Logger.Info("role created",
		zap.String("role_id", role.ID.Hex()),
		zap.String("role_name", role.Name))
	return role, nil
}

func (s *RoleServiceImpl) GetRoleByID(ctx context.Context, id string) (*Role, error) {
	return s.RoleRepo.FindByID(ctx, id)
}

func (s *RoleServiceImpl) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.RoleRepo.FindByName(ctx, name)
}

func (s *RoleServiceImpl) ListRoles(ctx context.Context) ([]Role, error) {
	return s.RoleRepo.List(ctx)
}

// UpdatePermissions replaces a role's permission tree. The change takes
// effect immediately for every holder of the role.
func (s *RoleServiceImpl) UpdatePermissions(ctx context.Context, id string, permissions PermissionTree) error {
	existing, err := s.RoleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	existing.Permissions = permissions
	existing.UpdatedAt = time.Now()
	if err := s.RoleRepo.Update(ctx, id, existing); err != nil {
		return err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}

	s.Logger.Info("role permissions updated", zap.String("role_id", id))
	return nil
}

// RetireRole deactivates a role definition. Its assignments stay in place
// but stop contributing to permission merges.
func (s *RoleServiceImpl) RetireRole(ctx context.Context, id string) error {
	existing, err := s.RoleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return fmt.Errorf("system role %s cannot be retired", existing.Name)
	}

	if err := s.RoleRepo.Retire(ctx, id); err != nil {
		return err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}

	s.Logger.Info("role retired", zap.String("role_id", id))
	return nil
}
