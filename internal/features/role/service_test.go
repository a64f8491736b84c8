package role

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockRoleRepo struct {
	Roles map[string]*Role

	CreatedRole *Role
	UpdatedRole *Role
	RetiredID   string
}

func (m *MockRoleRepo) Create(ctx context.Context, r *Role) error {
	m.CreatedRole = r
	return nil
}
func (m *MockRoleRepo) FindByID(ctx context.Context, id string) (*Role, error) {
	if r, ok := m.Roles[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, ErrRoleNotFound
}
func (m *MockRoleRepo) FindByName(ctx context.Context, name string) (*Role, error) {
	for _, r := range m.Roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, ErrRoleNotFound
}
func (m *MockRoleRepo) List(ctx context.Context) ([]Role, error) { return nil, nil }
func (m *MockRoleRepo) Update(ctx context.Context, id string, r *Role) error {
	m.UpdatedRole = r
	return nil
}
func (m *MockRoleRepo) Retire(ctx context.Context, id string) error {
	m.RetiredID = id
	return nil
}
func (m *MockRoleRepo) EnsureIndexes(ctx context.Context) error { return nil }

type countingInvalidator struct {
	Calls int
}

func (c *countingInvalidator) InvalidateAll() { c.Calls++ }

func TestUpdatePermissionsInvalidatesCache(t *testing.T) {
	id := primitive.NewObjectID()
	repo := &MockRoleRepo{Roles: map[string]*Role{
		id.Hex(): {ID: id, Name: "financial_manager", IsActive: true},
	}}
	service := NewRoleService(repo, zap.NewNop())
	inv := &countingInvalidator{}
	service.SetCacheInvalidator(inv)

	perms := PermissionTree{"finances": PermissionTree{"view": true}}
	if err := service.UpdatePermissions(context.Background(), id.Hex(), perms); err != nil {
		t.Fatalf("UpdatePermissions failed: %v", err)
	}

	if repo.UpdatedRole == nil {
		t.Fatal("expected a write")
	}
	if _, ok := repo.UpdatedRole.Permissions["finances"]; !ok {
		t.Errorf("permissions not replaced: %v", repo.UpdatedRole.Permissions)
	}
	if inv.Calls != 1 {
		t.Errorf("permission change must flush the merge cache, calls = %d", inv.Calls)
	}
}

func TestRetireRoleBlocksSystemRoles(t *testing.T) {
	id := primitive.NewObjectID()
	repo := &MockRoleRepo{Roles: map[string]*Role{
		id.Hex(): {ID: id, Name: "super_admin", IsActive: true, IsSystem: true},
	}}
	service := NewRoleService(repo, zap.NewNop())

	if err := service.RetireRole(context.Background(), id.Hex()); err == nil {
		t.Fatal("retiring a system role must fail")
	}
	if repo.RetiredID != "" {
		t.Error("system role must not reach the store's retire path")
	}
}

func TestRetireRoleUnknownID(t *testing.T) {
	service := NewRoleService(&MockRoleRepo{Roles: map[string]*Role{}}, zap.NewNop())

	if err := service.RetireRole(context.Background(), primitive.NewObjectID().Hex()); err != ErrRoleNotFound {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestCreateRoleRequiresName(t *testing.T) {
	service := NewRoleService(&MockRoleRepo{}, zap.NewNop())

	if _, err := service.CreateRole(context.Background(), &Role{}); err == nil {
		t.Error("nameless role must be rejected")
	}
}

func TestSeededRolesCoverTheAssociation(t *testing.T) {
	roles := SystemRoles()

	byName := map[string]Role{}
	for _, r := range roles {
		byName[r.Name] = r
	}

	for _, name := range []string{
		"super_admin",
		"financial_manager",
		"family_tree_admin",
		"occasions_initiatives_diyas_admin",
		"user_member",
	} {
		r, ok := byName[name]
		if !ok {
			t.Errorf("seed is missing role %s", name)
			continue
		}
		if !r.IsSystem {
			t.Errorf("%s must be a system role", name)
		}
		if r.NameArabic == "" {
			t.Errorf("%s is missing its Arabic name", name)
		}
	}

	super := byName["super_admin"]
	if !Truthy(super.Permissions[AllAccessKey]) {
		t.Error("super_admin must carry all_access")
	}
}
