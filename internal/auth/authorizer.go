package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
)

// Authorize decides whether id may act on a resource owned by target.
// An empty allowed set skips the role check.  target is nil for operations
// that are not bound to a restaurant.  super_admin bypasses ownership; a
// restaurant_admin must own target.
func Authorize(id *model.Identity, allowed model.RoleSet, target *uint64) error {
	if id == nil {
		return deny(ErrUnauthorized, "authentication required")
	}
	if !allowed.Allows(id.Role) {
		return deny(ErrForbidden, "forbidden: insufficient rights")
	}
	if id.Role == model.RoleSuperAdmin || target == nil {
		return nil
	}
	if id.RestaurantID == nil || *id.RestaurantID != *target {
		return deny(ErrForbidden, "forbidden: resource belongs to another restaurant")
	}
	return nil
}

// ResolveTenant picks the restaurant a new resource is created under.
// restaurant_admin always writes to its own restaurant and may not name a
// different one; super_admin must name one explicitly.
func ResolveTenant(id *model.Identity, requested *uint64) (uint64, error) {
	if id == nil {
		return 0, deny(ErrUnauthorized, "authentication required")
	}
	switch id.Role {
	case model.RoleRestaurantAdmin:
		if id.RestaurantID == nil {
			return 0, deny(ErrForbidden, "forbidden: account is not bound to a restaurant")
		}
		if requested != nil && *requested != *id.RestaurantID {
			return 0, deny(ErrForbidden, "forbidden: resource belongs to another restaurant")
		}
		return *id.RestaurantID, nil
	case model.RoleSuperAdmin:
		if requested == nil || *requested == 0 {
			return 0, deny(ErrBadRequest, "restaurant_id is required")
		}
		return *requested, nil
	}
	return 0, deny(ErrForbidden, "forbidden: insufficient rights")
}

// CategoryTenants resolves the owning restaurant of a category.  It returns
// repository.ErrNotFound for unknown categories.
type CategoryTenants interface {
	TenantOf(ctx context.Context, categoryID uint64) (uint64, error)
}

// CheckCategoryTenant confirms categoryID belongs to tenantID before a menu
// item is written with it.
func CheckCategoryTenant(ctx context.Context, categories CategoryTenants, categoryID, tenantID uint64) error {
	owner, err := categories.TenantOf(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return deny(ErrBadRequest, "invalid category for tenant")
		}
		return fmt.Errorf("lookup category tenant: %w", err)
	}
	if owner != tenantID {
		return deny(ErrBadRequest, "invalid category for tenant")
	}
	return nil
}
