// Package identity owns user accounts and credentials: registration, login,
// password rotation and the admin user-management surface.
package identity

import (
	"time"

	"github.com/google/uuid"

	"gramsuvidha/pkg/domain"
)

// User is a portal account. Phone is the login identifier and unique; email
// is optional but unique when present. VillageID is the immutable scope key.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Phone        string      `json:"phone"`
	Email        string      `json:"email,omitempty"`
	PasswordHash string      `json:"-"`
	Role         domain.Role `json:"role"`
	WardNumber   int         `json:"ward_number"`
	VillageID    uuid.UUID   `json:"village_id"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Caller converts a stored user into the request-scoped caller identity.
func (u *User) Caller() domain.Caller {
	return domain.Caller{
		ID:         u.ID,
		Role:       u.Role,
		VillageID:  u.VillageID,
		WardNumber: u.WardNumber,
	}
}

// TokenPair is the login response.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
