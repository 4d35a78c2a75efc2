package village

import (
	"context"

	"github.com/google/uuid"
)

// Store persists villages. DeleteCascade removes a village together with all
// of its dependent records in one transaction, children before parents:
// documents, announcements, grievances, projects, budget transactions,
// budgets, users, then the village itself.
type Store interface {
	Create(ctx context.Context, v *Village) error
	Get(ctx context.Context, id uuid.UUID) (*Village, error)
	List(ctx context.Context) ([]Village, error)
	Update(ctx context.Context, v *Village) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error

	// VillageExists satisfies identity.VillageDirectory.
	VillageExists(ctx context.Context, id uuid.UUID) (bool, error)
}
