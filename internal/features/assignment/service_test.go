package assignment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go-family/internal/features/role"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockAssignmentRepo struct {
	Assignments []Assignment

	InsertedAssignment *Assignment
	ReplacedAssignment *Assignment
	SoftDeletedID      string
	SoftDeleteFound    bool
}

func (m *MockAssignmentRepo) Insert(ctx context.Context, a *Assignment) error {
	m.InsertedAssignment = a
	m.Assignments = append(m.Assignments, *a)
	return nil
}

func (m *MockAssignmentRepo) Replace(ctx context.Context, a *Assignment) error {
	m.ReplacedAssignment = a
	return nil
}

func (m *MockAssignmentRepo) SoftDelete(ctx context.Context, id string, by string) (bool, error) {
	m.SoftDeletedID = id
	return m.SoftDeleteFound, nil
}

func (m *MockAssignmentRepo) FindByID(ctx context.Context, id string) (*Assignment, error) {
	for i := range m.Assignments {
		if m.Assignments[i].ID.Hex() == id {
			a := m.Assignments[i]
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockAssignmentRepo) ListByUser(ctx context.Context, userID string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range m.Assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAssignmentRepo) ListActiveByUserRole(ctx context.Context, userID string, roleID primitive.ObjectID, excludeID *primitive.ObjectID) ([]Assignment, error) {
	var out []Assignment
	for _, a := range m.Assignments {
		if a.UserID != userID || a.RoleID != roleID || !a.IsActive {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *MockAssignmentRepo) ListActive(ctx context.Context) ([]Assignment, error) {
	var out []Assignment
	for _, a := range m.Assignments {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAssignmentRepo) EnsureIndexes(ctx context.Context) error {
	return nil
}

type MockRoleRepo struct {
	Roles map[string]*role.Role
}

func (m *MockRoleRepo) Create(ctx context.Context, r *role.Role) error { return nil }
func (m *MockRoleRepo) FindByID(ctx context.Context, id string) (*role.Role, error) {
	if r, ok := m.Roles[id]; ok {
		return r, nil
	}
	return nil, role.ErrRoleNotFound
}
func (m *MockRoleRepo) FindByName(ctx context.Context, name string) (*role.Role, error) {
	for _, r := range m.Roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, role.ErrRoleNotFound
}
func (m *MockRoleRepo) List(ctx context.Context) ([]role.Role, error) { return nil, nil }
func (m *MockRoleRepo) Update(ctx context.Context, id string, r *role.Role) error {
	return nil
}
func (m *MockRoleRepo) Retire(ctx context.Context, id string) error { return nil }
func (m *MockRoleRepo) EnsureIndexes(ctx context.Context) error     { return nil }

type MockUserDirectory struct {
	Known map[string]bool
}

func (m *MockUserDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	return m.Known[userID], nil
}

type capturedInvalidator struct {
	InvalidatedUserIDs []string
}

func (c *capturedInvalidator) Invalidate(userID string) {
	c.InvalidatedUserIDs = append(c.InvalidatedUserIDs, userID)
}

func newTestService(repo *MockAssignmentRepo, roleRepo *MockRoleRepo, users *MockUserDirectory) *AssignmentServiceImpl {
	return &AssignmentServiceImpl{
		Repo:     repo,
		RoleRepo: roleRepo,
		Users:    users,
		Detector: &StoreDetector{Repo: repo},
		Logger:   zap.NewNop(),
	}
}

func testRole() (*role.Role, string) {
	id := primitive.NewObjectID()
	return &role.Role{
		ID:       id,
		Name:     "financial_manager",
		IsActive: true,
	}, id.Hex()
}

func TestAssignCreatesAssignment(t *testing.T) {
	rl, roleID := testRole()
	repo := &MockAssignmentRepo{}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	inv := &capturedInvalidator{}
	service.SetCacheInvalidator(inv)

	a, err := service.Assign(context.Background(), AssignRequest{
		UserID:         "user-1",
		RoleID:         roleID,
		StartGregorian: "2025-01-01",
		EndGregorian:   "2025-12-31",
	}, "admin-1")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if repo.InsertedAssignment == nil {
		t.Fatal("expected an insert")
	}
	if !a.IsActive {
		t.Error("new assignment should be active")
	}
	if a.AssignedBy != "admin-1" {
		t.Errorf("assigned_by = %q, want admin-1", a.AssignedBy)
	}
	if a.StartHijri != "1446-07-01" {
		t.Errorf("derived hijri start = %q, want 1446-07-01", a.StartHijri)
	}
	if len(inv.InvalidatedUserIDs) != 1 || inv.InvalidatedUserIDs[0] != "user-1" {
		t.Errorf("cache invalidation = %v, want [user-1]", inv.InvalidatedUserIDs)
	}
}

func TestAssignRejectsOverlap(t *testing.T) {
	rl, roleID := testRole()
	existingID := primitive.NewObjectID()
	repo := &MockAssignmentRepo{
		Assignments: []Assignment{{
			ID:             existingID,
			UserID:         "user-1",
			RoleID:         rl.ID,
			StartGregorian: date(2025, 1, 1),
			EndGregorian:   datePtr(2025, 6, 30),
			IsActive:       true,
		}},
	}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	_, err := service.Assign(context.Background(), AssignRequest{
		UserID:         "user-1",
		RoleID:         roleID,
		StartGregorian: "2025-03-01",
		EndGregorian:   "2025-09-01",
	}, "admin-1")

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflict.ConflictingIDs) != 1 || conflict.ConflictingIDs[0] != existingID.Hex() {
		t.Errorf("conflicting ids = %v, want [%s]", conflict.ConflictingIDs, existingID.Hex())
	}
	if repo.InsertedAssignment != nil {
		t.Error("conflicting assign must not insert")
	}
}

func TestAssignAllowsAdjacentWindows(t *testing.T) {
	rl, roleID := testRole()
	repo := &MockAssignmentRepo{
		Assignments: []Assignment{{
			ID:             primitive.NewObjectID(),
			UserID:         "user-1",
			RoleID:         rl.ID,
			StartGregorian: date(2025, 1, 1),
			EndGregorian:   datePtr(2025, 6, 1),
			IsActive:       true,
		}},
	}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	_, err := service.Assign(context.Background(), AssignRequest{
		UserID:         "user-1",
		RoleID:         roleID,
		StartGregorian: "2025-06-01",
		EndGregorian:   "2025-12-01",
	}, "admin-1")
	if err != nil {
		t.Fatalf("window starting at the previous end must be allowed: %v", err)
	}
}

func TestAssignUnknownUser(t *testing.T) {
	rl, roleID := testRole()
	service := newTestService(&MockAssignmentRepo{},
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{}})

	_, err := service.Assign(context.Background(), AssignRequest{
		UserID:         "missing",
		RoleID:         roleID,
		StartGregorian: "2025-01-01",
	}, "admin-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestAssignValidationFailures(t *testing.T) {
	rl, roleID := testRole()
	service := newTestService(&MockAssignmentRepo{},
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	tests := []struct {
		name string
		req  AssignRequest
	}{
		{
			name: "missing ids",
			req:  AssignRequest{},
		},
		{
			name: "start after end",
			req: AssignRequest{
				UserID: "user-1", RoleID: roleID,
				StartGregorian: "2025-12-31", EndGregorian: "2025-01-01",
			},
		},
		{
			name: "start equal to end",
			req: AssignRequest{
				UserID: "user-1", RoleID: roleID,
				StartGregorian: "2025-06-01", EndGregorian: "2025-06-01",
			},
		},
		{
			name: "malformed gregorian date",
			req: AssignRequest{
				UserID: "user-1", RoleID: roleID,
				StartGregorian: "01/06/2025",
			},
		},
		{
			name: "hijri disagrees with gregorian",
			req: AssignRequest{
				UserID: "user-1", RoleID: roleID,
				StartGregorian: "2025-01-01", StartHijri: "1446-01-01",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Assign(context.Background(), tt.req, "admin-1")
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAssignMalformedHijriIsConversionError(t *testing.T) {
	rl, roleID := testRole()
	service := newTestService(&MockAssignmentRepo{},
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	_, err := service.Assign(context.Background(), AssignRequest{
		UserID: "user-1", RoleID: roleID,
		StartHijri: "1446-13-01",
	}, "admin-1")

	var conv *ConversionError
	if !errors.As(err, &conv) {
		t.Errorf("expected ConversionError for invalid hijri month, got %v", err)
	}
}

func TestAssignHijriOnlyDerivesGregorian(t *testing.T) {
	rl, roleID := testRole()
	repo := &MockAssignmentRepo{}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{roleID: rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	a, err := service.Assign(context.Background(), AssignRequest{
		UserID: "user-1", RoleID: roleID,
		StartHijri: "1446-07-01",
	}, "admin-1")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if got := a.StartGregorian.Format(DateLayout); got != "2025-01-01" {
		t.Errorf("derived gregorian = %s, want 2025-01-01", got)
	}
	if a.StartHijri != "1446-07-01" {
		t.Errorf("hijri echoed back = %s, want 1446-07-01", a.StartHijri)
	}
}

func TestUpdateReactivationChecksOverlap(t *testing.T) {
	rl, _ := testRole()
	dormant := Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         "user-1",
		RoleID:         rl.ID,
		StartGregorian: date(2025, 1, 1),
		EndGregorian:   datePtr(2025, 12, 31),
		IsActive:       false,
	}
	blocker := Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         "user-1",
		RoleID:         rl.ID,
		StartGregorian: date(2025, 6, 1),
		IsActive:       true,
	}
	repo := &MockAssignmentRepo{Assignments: []Assignment{dormant, blocker}}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	active := true
	_, err := service.Update(context.Background(), dormant.ID.Hex(), UpdateRequest{IsActive: &active})
	if !IsConflict(err) {
		t.Fatalf("reactivating into an overlap must conflict, got %v", err)
	}
	if repo.ReplacedAssignment != nil {
		t.Error("conflicting update must not write")
	}
}

func TestUpdateNotesOnlySkipsOverlapCheck(t *testing.T) {
	rl, _ := testRole()
	first := Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         "user-1",
		RoleID:         rl.ID,
		StartGregorian: date(2025, 1, 1),
		EndGregorian:   datePtr(2025, 6, 1),
		IsActive:       true,
	}
	repo := &MockAssignmentRepo{Assignments: []Assignment{first}}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	notes := "handover complete"
	updated, err := service.Update(context.Background(), first.ID.Hex(), UpdateRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Notes != notes {
		t.Errorf("notes = %q, want %q", updated.Notes, notes)
	}
	if repo.ReplacedAssignment == nil {
		t.Error("expected a write")
	}
}

func TestUpdateUnknownAssignment(t *testing.T) {
	rl, _ := testRole()
	service := newTestService(&MockAssignmentRepo{},
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{}})

	notes := "x"
	_, err := service.Update(context.Background(), primitive.NewObjectID().Hex(), UpdateRequest{Notes: &notes})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	rl, _ := testRole()
	existing := Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         "user-1",
		RoleID:         rl.ID,
		StartGregorian: date(2025, 1, 1),
		IsActive:       true,
	}
	repo := &MockAssignmentRepo{SoftDeleteFound: true, Assignments: []Assignment{existing}}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{}})

	id := existing.ID.Hex()
	if err := service.SoftDelete(context.Background(), id, "admin-1"); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if err := service.SoftDelete(context.Background(), id, "admin-1"); err != nil {
		t.Errorf("second revoke of the same id must succeed, got %v", err)
	}
	if repo.SoftDeletedID != id {
		t.Errorf("soft deleted id = %s, want %s", repo.SoftDeletedID, id)
	}
}

func TestSoftDeleteInvalidatesCache(t *testing.T) {
	rl, _ := testRole()
	existing := Assignment{
		ID:             primitive.NewObjectID(),
		UserID:         "user-1",
		RoleID:         rl.ID,
		StartGregorian: date(2025, 1, 1),
		IsActive:       true,
	}
	repo := &MockAssignmentRepo{SoftDeleteFound: true, Assignments: []Assignment{existing}}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{}})

	inv := &capturedInvalidator{}
	service.SetCacheInvalidator(inv)

	if err := service.SoftDelete(context.Background(), existing.ID.Hex(), "admin-1"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(inv.InvalidatedUserIDs) != 1 || inv.InvalidatedUserIDs[0] != "user-1" {
		t.Errorf("revoke must evict the user's cached permissions, got %v", inv.InvalidatedUserIDs)
	}
}

func TestSoftDeleteUnknownID(t *testing.T) {
	repo := &MockAssignmentRepo{SoftDeleteFound: false}
	rl, _ := testRole()
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{}})

	err := service.SoftDelete(context.Background(), primitive.NewObjectID().Hex(), "admin-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListForUserAnnotatesStatus(t *testing.T) {
	rl, _ := testRole()
	repo := &MockAssignmentRepo{Assignments: []Assignment{
		{
			ID: primitive.NewObjectID(), UserID: "user-1", RoleID: rl.ID,
			StartGregorian: date(2025, 1, 1), EndGregorian: datePtr(2025, 3, 1), IsActive: true,
		},
		{
			ID: primitive.NewObjectID(), UserID: "user-1", RoleID: rl.ID,
			StartGregorian: date(2025, 4, 1), IsActive: true,
		},
		{
			ID: primitive.NewObjectID(), UserID: "user-1", RoleID: rl.ID,
			StartGregorian: date(2025, 1, 1), IsActive: false,
		},
	}}
	service := newTestService(repo,
		&MockRoleRepo{Roles: map[string]*role.Role{rl.ID.Hex(): rl}},
		&MockUserDirectory{Known: map[string]bool{"user-1": true}})

	out, err := service.ListForUser(context.Background(), "user-1", date(2025, 6, 1))
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(out))
	}

	want := []Status{StatusExpired, StatusActive, StatusInactive}
	for i, ws := range out {
		if ws.Status != want[i] {
			t.Errorf("assignment %d status = %s, want %s", i, ws.Status, want[i])
		}
	}
}

func TestConflictErrorMessageNamesOverlap(t *testing.T) {
	err := &ConflictError{ConflictingIDs: []string{"abc"}}
	if msg := err.Error(); !strings.Contains(msg, "overlapping") {
		t.Errorf("conflict message should mention the overlap, got %q", msg)
	}
}
