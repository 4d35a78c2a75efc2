// Package audit records privileged mutations (user administration, village
// management, ledger writes, grievance moderation) as append-only events.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded across the portal.
const (
	ActionUserCreated        = "user.created"
	ActionUserRoleChanged    = "user.role_changed"
	ActionUserDeleted        = "user.deleted"
	ActionVillageCreated     = "village.created"
	ActionVillageDeleted     = "village.deleted"
	ActionBudgetCreated      = "budget.created"
	ActionBudgetDeleted      = "budget.deleted"
	ActionTransactionAdded   = "budget.transaction_added"
	ActionTransactionRemoved = "budget.transaction_removed"
	ActionGrievanceReplied   = "grievance.replied"
	ActionDocumentUploaded   = "document.uploaded"
)

// Event is one audit record. VillageID is zero for cross-village admin
// actions (e.g. village creation itself).
type Event struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   uuid.UUID `json:"entity_id"`
	VillageID  uuid.UUID `json:"village_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store persists events. Append-only; nothing updates or deletes them.
type Store interface {
	Append(ctx context.Context, e Event) error
}
