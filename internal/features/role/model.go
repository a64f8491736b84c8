package role

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PermissionTree is a recursive mapping from permission path segments to
// either a boolean leaf, a numeric leaf, or a nested tree. BSON decoding may
// surface nested trees as primitive.M and numbers as int32/int64/float64,
// so consumers must treat any map[string]any value as a subtree.
type PermissionTree map[string]any

// AllAccessKey grants everything when set to true anywhere in a tree.
const AllAccessKey = "all_access"

// Lookup resolves a dotted path ("members.view") against the tree. A missing
// path returns (nil, false), never an error.
func (t PermissionTree) Lookup(path string) (any, bool) {
	node := t
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		v, ok := node[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		sub, ok := AsTree(v)
		if !ok {
			return nil, false
		}
		node = sub
	}
	return nil, false
}

// AsTree normalizes the map shapes the BSON decoder can produce.
func AsTree(v any) (PermissionTree, bool) {
	switch m := v.(type) {
	case PermissionTree:
		return m, true
	case map[string]any:
		return PermissionTree(m), true
	case primitive.M:
		return PermissionTree(m), true
	default:
		return nil, false
	}
}

// Truthy interprets a leaf the way the authorization check does: true
// booleans and non-zero numbers grant, everything else denies.
func Truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return false
	}
}

// Role is a named bundle of permissions. Retiring a role (IsActive=false)
// removes it from permission merges without touching its assignments.
type Role struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"role_name" bson:"role_name"`
	NameArabic  string             `json:"role_name_ar" bson:"role_name_ar"`
	Description string             `json:"description" bson:"description"`
	Priority    int                `json:"priority" bson:"priority"`
	Permissions PermissionTree     `json:"permissions" bson:"permissions"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	IsSystem    bool               `json:"is_system" bson:"is_system"` // Prevent deletion of seeded roles
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}
