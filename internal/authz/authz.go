// Package authz is the single authorization guard. Role requirements live in
// one capability table instead of ad hoc role checks scattered across
// handlers, so a permission change is a one-line edit here.
//
// Role membership alone never implies scope: callers additionally pass
// records through the scope predicates (or fold the scope into store lookups
// via VillageScope, which returns NotFound for foreign villages rather than
// Forbidden, so existence never leaks across villages).
package authz

import (
	"fmt"

	"github.com/google/uuid"

	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
)

// Action names a privileged capability on a resource type.
type Action string

const (
	ActionManageUsers        Action = "users.manage"
	ActionManageVillages     Action = "villages.manage"
	ActionWriteBudget        Action = "budget.write"
	ActionWriteProject       Action = "projects.write"
	ActionWriteAnnouncement  Action = "announcements.write"
	ActionWriteDocument      Action = "documents.write"
	ActionModerateGrievances Action = "grievances.moderate"
)

// capabilities is the declarative (action -> required role set) table.
var capabilities = map[Action][]domain.Role{
	ActionManageUsers:        {domain.RoleAdmin},
	ActionManageVillages:     {domain.RoleAdmin},
	ActionWriteBudget:        {domain.RoleAdmin, domain.RoleSarpanch},
	ActionWriteProject:       {domain.RoleAdmin, domain.RoleSarpanch, domain.RoleWardMember},
	ActionWriteAnnouncement:  {domain.RoleAdmin, domain.RoleSarpanch},
	ActionWriteDocument:      {domain.RoleAdmin, domain.RoleSarpanch},
	ActionModerateGrievances: {domain.RoleAdmin, domain.RoleSarpanch},
}

// Require permits the action or fails with forbidden.
func Require(caller domain.Caller, action Action) error {
	roles, ok := capabilities[action]
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("unknown capability %q", action))
	}
	if !caller.Is(roles...) {
		return dErrors.New(dErrors.CodeForbidden, "insufficient role for this action")
	}
	return nil
}

// VillageScope returns the village filter to fold into store lookups:
// uuid.Nil (unscoped) for admins, the caller's own village otherwise.
func VillageScope(caller domain.Caller) uuid.UUID {
	if caller.Role == domain.RoleAdmin {
		return uuid.Nil
	}
	return caller.VillageID
}

// RequireWard restricts ward members to their own ward. Admins and
// sarpanches operate across all wards of the scope they already hold.
func RequireWard(caller domain.Caller, wardNumber int) error {
	if caller.Role != domain.RoleWardMember {
		return nil
	}
	if caller.WardNumber != wardNumber {
		return dErrors.New(dErrors.CodeForbidden,
			fmt.Sprintf("ward members may only manage projects in their own ward %d", caller.WardNumber))
	}
	return nil
}

// RequireOwner enforces record ownership for citizen-scoped resources.
func RequireOwner(caller domain.Caller, ownerID uuid.UUID) error {
	if caller.ID != ownerID {
		return dErrors.New(dErrors.CodeForbidden, "not the owner of this record")
	}
	return nil
}
