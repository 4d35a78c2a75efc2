package grievance

import (
	"context"

	"github.com/google/uuid"
)

// Store persists grievances. Scoped lookups treat uuid.Nil as unscoped and
// surface ErrNotFound for records outside the scope.
type Store interface {
	Create(ctx context.Context, g *Grievance) error
	Get(ctx context.Context, id uuid.UUID) (*Grievance, error)
	GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Grievance, error)
	GetOwned(ctx context.Context, id, citizenID uuid.UUID) (*Grievance, error)
	ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]Grievance, error)
	ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Grievance, error)
	ListByVillageAndStatus(ctx context.Context, villageID uuid.UUID, status Status) ([]Grievance, error)
	Update(ctx context.Context, g *Grievance) error
	Delete(ctx context.Context, id uuid.UUID) error
	StatusCounts(ctx context.Context, villageID uuid.UUID) (map[Status]int, error)
}
