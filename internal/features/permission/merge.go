package permission

import (
	"go-family/internal/features/role"
)

// Merge combines permission trees from several roles into one effective
// tree. The merge is commutative and associative: boolean leaves combine
// with OR, numeric leaves with MAX, nested trees recursively. If any input
// contains a truthy all_access leaf the result collapses to
// {"all_access": true} without descending further.
func Merge(trees ...role.PermissionTree) role.PermissionTree {
	for _, t := range trees {
		if hasAllAccess(t) {
			return role.PermissionTree{role.AllAccessKey: true}
		}
	}

	merged := role.PermissionTree{}
	for _, t := range trees {
		mergeInto(merged, t)
	}
	return merged
}

// hasAllAccess scans a tree for a truthy all_access leaf at any depth.
func hasAllAccess(t role.PermissionTree) bool {
	for k, v := range t {
		if sub, ok := role.AsTree(v); ok {
			if hasAllAccess(sub) {
				return true
			}
			continue
		}
		if k == role.AllAccessKey && role.Truthy(v) {
			return true
		}
	}
	return false
}

func mergeInto(dst role.PermissionTree, src role.PermissionTree) {
	for k, v := range src {
		existing, present := dst[k]
		if !present {
			if sub, ok := role.AsTree(v); ok {
				fresh := role.PermissionTree{}
				mergeInto(fresh, sub)
				dst[k] = fresh
			} else {
				dst[k] = v
			}
			continue
		}
		dst[k] = mergeValues(existing, v)
	}
}

// mergeValues resolves a single key collision. Like-typed leaves use the
// most-permissive rule; a subtree absorbs a colliding subtree recursively
// and wins over a stray leaf at the same key.
func mergeValues(a, b any) any {
	aTree, aIsTree := role.AsTree(a)
	bTree, bIsTree := role.AsTree(b)

	switch {
	case aIsTree && bIsTree:
		mergeInto(aTree, bTree)
		return aTree
	case aIsTree:
		return aTree
	case bIsTree:
		fresh := role.PermissionTree{}
		mergeInto(fresh, bTree)
		return fresh
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return aBool || bBool
	}

	aNum, aIsNum := toFloat(a)
	bNum, bIsNum := toFloat(b)
	if aIsNum && bIsNum {
		if aNum >= bNum {
			return a
		}
		return b
	}

	// Mixed bool/number: grant when either side grants.
	return role.Truthy(a) || role.Truthy(b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
