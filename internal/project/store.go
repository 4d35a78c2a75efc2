package project

import (
	"context"

	"github.com/google/uuid"
)

// Store persists projects. Scoped lookups treat uuid.Nil as unscoped.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id uuid.UUID) (*Project, error)
	GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Project, error)
	ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Project, error)
	ListByVillageAndStatus(ctx context.Context, villageID uuid.UUID, status Status) ([]Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}
