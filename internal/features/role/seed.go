package role

import (
	"context"
	"time"
)

// SystemRoles are the seeded association roles. Permissions are recursive
// trees: boolean leaves grant actions, numeric leaves are ceilings (for
// example an approval limit in SAR).
func SystemRoles() []Role {
	now := time.Now()
	mk := func(name, nameAr, description string, priority int, perms PermissionTree) Role {
		return Role{
			Name:        name,
			NameArabic:  nameAr,
			Description: description,
			Priority:    priority,
			Permissions: perms,
			IsActive:    true,
			IsSystem:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []Role{
		mk("super_admin", "المدير الأعلى", "Full access to every subsystem", 100, PermissionTree{
			AllAccessKey: true,
		}),
		mk("financial_manager", "المدير المالي", "Payments, subscriptions and financial reports", 80, PermissionTree{
			"dashboard": PermissionTree{"view": true},
			"finances": PermissionTree{
				"manage":         true,
				"view_reports":   true,
				"approval_limit": 50000,
			},
			"subscriptions": PermissionTree{"manage": true},
			"payments":      PermissionTree{"manage": true},
		}),
		mk("family_tree_admin", "مدير شجرة العائلة", "Family tree and relationship management", 70, PermissionTree{
			"dashboard": PermissionTree{"view": true},
			"family_tree": PermissionTree{
				"manage":               true,
				"manage_relationships": true,
			},
		}),
		mk("occasions_initiatives_diyas_admin", "مدير المناسبات والمبادرات والديات", "Occasions, initiatives and diyas", 60, PermissionTree{
			"dashboard":   PermissionTree{"view": true},
			"occasions":   PermissionTree{"manage": true},
			"initiatives": PermissionTree{"manage": true},
			"diyas":       PermissionTree{"manage": true},
			"events":      PermissionTree{"view_calendar": true},
		}),
		mk("user_member", "عضو عادي", "Regular member self-service", 10, PermissionTree{
			"dashboard": PermissionTree{"view": true},
			"profile":   PermissionTree{"view": true},
			"payments":  PermissionTree{"view_own": true},
			"events":    PermissionTree{"view": true},
		}),
	}
}

// SeedSystemRoles inserts any system role that is not present yet. Existing
// roles are left untouched so permission edits survive restarts.
func SeedSystemRoles(ctx context.Context, repo RoleRepository) error {
	for _, r := range SystemRoles() {
		if _, err := repo.FindByName(ctx, r.Name); err == nil {
			continue
		} else if err != ErrRoleNotFound {
			return err
		}
		seeded := r
		if err := repo.Create(ctx, &seeded); err != nil {
			return err
		}
	}
	return nil
}
