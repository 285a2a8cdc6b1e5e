package model

import (
	"errors"
	"strings"
)

// Role is the closed set of account roles.  Role values travel inside
// access tokens and are stored in the `users.role` column.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"      // unrestricted, not bound to a restaurant
	RoleRestaurantAdmin Role = "restaurant_admin" // bound to exactly one restaurant
)

// ErrUnknownRole is returned by ParseRole for values outside the enum.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a raw string into a Role.  Matching is exact after
// trimming surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleSuperAdmin, RoleRestaurantAdmin:
		return r, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleRestaurantAdmin
}

// RoleSet is a set of roles allowed to perform an operation.  The empty
// set admits every authenticated role.
type RoleSet map[Role]struct{}

// Roles builds a RoleSet from the given roles.
func Roles(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Allows reports whether r passes the set.
func (s RoleSet) Allows(r Role) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[r]
	return ok
}
