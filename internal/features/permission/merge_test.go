package permission

import (
	"reflect"
	"testing"

	"go-family/internal/features/role"
)

func TestMergeUnionOfBranches(t *testing.T) {
	financial := role.PermissionTree{
		"members":  role.PermissionTree{"view": true},
		"finances": role.PermissionTree{"view": true, "edit": true},
	}
	tree := role.PermissionTree{
		"members": role.PermissionTree{"view": true, "edit": true},
	}

	merged := Merge(financial, tree)

	members, ok := role.AsTree(merged["members"])
	if !ok {
		t.Fatal("members branch missing")
	}
	if members["view"] != true || members["edit"] != true {
		t.Errorf("members branch = %v, want view and edit granted", members)
	}

	finances, ok := role.AsTree(merged["finances"])
	if !ok {
		t.Fatal("finances branch missing")
	}
	if finances["edit"] != true {
		t.Errorf("finances branch = %v, want edit granted", finances)
	}
}

func TestMergeBooleanOr(t *testing.T) {
	a := role.PermissionTree{"members": role.PermissionTree{"view": true, "edit": false}}
	b := role.PermissionTree{"members": role.PermissionTree{"view": false, "edit": true}}

	merged := Merge(a, b)
	members, _ := role.AsTree(merged["members"])

	if members["view"] != true || members["edit"] != true {
		t.Errorf("boolean leaves must combine with OR, got %v", members)
	}
}

func TestMergeNumericMax(t *testing.T) {
	a := role.PermissionTree{"finances": role.PermissionTree{"approval_limit": 50000}}
	b := role.PermissionTree{"finances": role.PermissionTree{"approval_limit": 10000}}

	merged := Merge(a, b)
	finances, _ := role.AsTree(merged["finances"])

	if finances["approval_limit"] != 50000 {
		t.Errorf("numeric leaves must take the max, got %v", finances["approval_limit"])
	}
}

func TestMergeNumericMaxAcrossBsonTypes(t *testing.T) {
	// Mongo decodes numbers as int32, int64 or float64 depending on how
	// they were written.
	a := role.PermissionTree{"limit": int32(100)}
	b := role.PermissionTree{"limit": float64(250)}

	merged := Merge(a, b)
	if merged["limit"] != float64(250) {
		t.Errorf("expected 250, got %v", merged["limit"])
	}
}

func TestMergeAllAccessShortCircuits(t *testing.T) {
	super := role.PermissionTree{role.AllAccessKey: true}
	detailed := role.PermissionTree{
		"members":  role.PermissionTree{"view": true},
		"finances": role.PermissionTree{"approval_limit": 50000},
	}

	want := role.PermissionTree{role.AllAccessKey: true}

	if got := Merge(super, detailed); !reflect.DeepEqual(got, want) {
		t.Errorf("Merge(super, detailed) = %v, want %v", got, want)
	}
	if got := Merge(detailed, super); !reflect.DeepEqual(got, want) {
		t.Errorf("Merge(detailed, super) = %v, want %v", got, want)
	}
}

func TestMergeNestedAllAccessShortCircuits(t *testing.T) {
	buried := role.PermissionTree{
		"admin": role.PermissionTree{role.AllAccessKey: true},
	}

	merged := Merge(buried, role.PermissionTree{"members": role.PermissionTree{"view": true}})
	if !reflect.DeepEqual(merged, role.PermissionTree{role.AllAccessKey: true}) {
		t.Errorf("nested all_access must collapse the result, got %v", merged)
	}
}

func TestMergeFalseAllAccessDoesNotShortCircuit(t *testing.T) {
	a := role.PermissionTree{role.AllAccessKey: false}
	b := role.PermissionTree{"members": role.PermissionTree{"view": true}}

	merged := Merge(a, b)
	if role.Truthy(merged[role.AllAccessKey]) {
		t.Error("false all_access must not grant everything")
	}
	if _, ok := role.AsTree(merged["members"]); !ok {
		t.Error("other branches must survive a false all_access")
	}
}

func TestMergeSubtreeWinsOverLeaf(t *testing.T) {
	leaf := role.PermissionTree{"members": true}
	branch := role.PermissionTree{"members": role.PermissionTree{"view": true}}

	for _, trees := range [][]role.PermissionTree{{leaf, branch}, {branch, leaf}} {
		merged := Merge(trees...)
		if _, ok := role.AsTree(merged["members"]); !ok {
			t.Errorf("subtree must win the collision, got %v", merged["members"])
		}
	}
}

func TestMergeCommutative(t *testing.T) {
	a := role.PermissionTree{
		"members":  role.PermissionTree{"view": true},
		"finances": role.PermissionTree{"approval_limit": 10000},
	}
	b := role.PermissionTree{
		"members":  role.PermissionTree{"edit": true},
		"finances": role.PermissionTree{"approval_limit": 50000, "view": true},
	}
	c := role.PermissionTree{
		"occasions": role.PermissionTree{"manage": true},
	}

	ab := Merge(a, b, c)
	ba := Merge(c, b, a)

	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("merge order changed the result:\n%v\nvs\n%v", ab, ba)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := role.PermissionTree{"members": role.PermissionTree{"view": true}}
	b := role.PermissionTree{"members": role.PermissionTree{"edit": true}}

	Merge(a, b)

	aMembers, _ := role.AsTree(a["members"])
	if _, leaked := aMembers["edit"]; leaked {
		t.Error("merge must not write into its inputs")
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(); len(got) != 0 {
		t.Errorf("merging nothing should yield an empty tree, got %v", got)
	}
	if got := Merge(role.PermissionTree{}); len(got) != 0 {
		t.Errorf("merging an empty tree should yield an empty tree, got %v", got)
	}
}
