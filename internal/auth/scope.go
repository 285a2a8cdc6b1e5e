package auth

import "github.com/arunika0/menu/internal/model"

// ScopeList returns the restaurant filter for a list query, or nil for an
// unscoped listing.  A restaurant_admin is always pinned to its own
// restaurant; otherwise the requested restaurant, if any, applies.
func ScopeList(id *model.Identity, requested *uint64) *uint64 {
	if id != nil && id.Role == model.RoleRestaurantAdmin && id.RestaurantID != nil {
		own := *id.RestaurantID
		return &own
	}
	if requested != nil {
		r := *requested
		return &r
	}
	return nil
}
