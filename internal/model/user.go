package model

import "errors"

// User represents a credential record as stored in the `users` table.
// The password hash never leaves the repository and handler layers.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name, compared case-sensitively.
//	PasswordHash – bcrypt hash of the password.
//	Role         – account role.
//	RestaurantID – tenant binding; set iff Role is restaurant_admin.
type User struct {
	ID           uint64  `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Role         Role    `json:"role"`
	RestaurantID *uint64 `json:"restaurant_id"`
}

// ErrTenantBinding reports a role/restaurant combination that violates the
// "restaurant id is set iff role is restaurant_admin" rule.
var ErrTenantBinding = errors.New("restaurant_id must be set for restaurant_admin and only for restaurant_admin")

// CheckTenantBinding validates the role/tenant invariant shared by users
// and identities.
func CheckTenantBinding(role Role, restaurantID *uint64) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if (role == RoleRestaurantAdmin) != (restaurantID != nil) {
		return ErrTenantBinding
	}
	return nil
}

// Identity is the verified caller of a request.  It is produced from an
// access token and lives only as long as the request.
type Identity struct {
	UserID       uint64  `json:"user_id"`
	Username     string  `json:"username"`
	Role         Role    `json:"role"`
	RestaurantID *uint64 `json:"restaurant_id"`
}

// Validate checks the role and tenant binding of the identity.
func (i Identity) Validate() error {
	return CheckTenantBinding(i.Role, i.RestaurantID)
}

// IdentityOf returns the identity a user authenticates as.
func IdentityOf(u User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role, RestaurantID: u.RestaurantID}
}
