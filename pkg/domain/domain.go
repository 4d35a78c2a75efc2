// Package domain holds identity types shared across modules: roles and the
// authenticated caller. Keeping these in pkg avoids import cycles between the
// authorization guard, the middleware, and the per-entity modules.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the portal-wide role of a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSarpanch   Role = "sarpanch"
	RoleWardMember Role = "ward_member"
	RoleCitizen    Role = "citizen"
)

// ParseRole validates a role string coming from a token claim or request body.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSarpanch, RoleWardMember, RoleCitizen:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// NeedsWard reports whether the role is tied to a ward context.
func (r Role) NeedsWard() bool {
	return r == RoleSarpanch || r == RoleWardMember
}

// Caller is the authenticated identity attached to a request after the token
// has been validated and the user row loaded. Village and ward come from the
// store, not the token, so role changes take effect on the next request.
type Caller struct {
	ID         uuid.UUID
	Role       Role
	VillageID  uuid.UUID
	WardNumber int
}

// Is reports whether the caller holds one of the given roles.
func (c Caller) Is(roles ...Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
