package identity

import (
	"context"

	"github.com/google/uuid"
)

// Store persists user accounts. Implementations return sentinel.ErrNotFound
// for missing rows and sentinel.ErrConflict for phone/email uniqueness
// violations; the service translates those into domain errors.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// VillageDirectory is the narrow slice of the village module the identity
// service needs: existence checks when registering users.
type VillageDirectory interface {
	VillageExists(ctx context.Context, id uuid.UUID) (bool, error)
}
