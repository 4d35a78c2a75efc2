package announcement

import (
	"context"

	"github.com/google/uuid"
)

// Store persists announcements.
type Store interface {
	Create(ctx context.Context, a *Announcement) error
	Get(ctx context.Context, id uuid.UUID) (*Announcement, error)
	GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Announcement, error)
	ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Announcement, error)
	ListByVillageAndType(ctx context.Context, villageID uuid.UUID, t Type) ([]Announcement, error)
	ListLatest(ctx context.Context, villageID uuid.UUID, limit int) ([]Announcement, error)
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id uuid.UUID) error
	TypeCounts(ctx context.Context, villageID uuid.UUID) (map[Type]int, error)
}
