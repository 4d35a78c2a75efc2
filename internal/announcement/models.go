// Package announcement publishes village notices to the public feed.
package announcement

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies an announcement.
type Type string

const (
	TypeNotice  Type = "notice"
	TypeScheme  Type = "scheme"
	TypeMeeting Type = "meeting"
	TypeAlert   Type = "alert"
	TypeGeneral Type = "general"
)

var AllTypes = []Type{TypeNotice, TypeScheme, TypeMeeting, TypeAlert, TypeGeneral}

func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Announcement is one published notice.
type Announcement struct {
	ID          uuid.UUID `json:"id"`
	VillageID   uuid.UUID `json:"village_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Type        Type      `json:"type"`
	PublishedBy uuid.UUID `json:"published_by"`
	CreatedAt   time.Time `json:"created_at"`
}
