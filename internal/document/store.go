package document

import (
	"context"

	"github.com/google/uuid"
)

// Store persists document metadata.
type Store interface {
	Create(ctx context.Context, d *Document) error
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
	GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Document, error)
	ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Document, error)
	ListByVillageAndType(ctx context.Context, villageID uuid.UUID, t Type) ([]Document, error)
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}
