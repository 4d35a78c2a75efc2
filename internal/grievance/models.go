// Package grievance handles citizen complaints and their moderation
// lifecycle. A grievance is a small state machine: it opens, may move to
// in_progress, and ends resolved or rejected. Terminal states are immutable.
package grievance

import (
	"time"

	"github.com/google/uuid"
)

// Status of a grievance.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// AllStatuses in lifecycle order. Summaries report every status even at zero.
var AllStatuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusRejected}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// transitions is the allowed edge set of the state machine.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusRejected},
	StatusInProgress: {StatusResolved, StatusRejected},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// Grievance is one citizen complaint. ResolvedAt is set exactly once, when
// the status first becomes resolved.
type Grievance struct {
	ID            uuid.UUID  `json:"id"`
	VillageID     uuid.UUID  `json:"village_id"`
	CitizenID     uuid.UUID  `json:"citizen_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Status        Status     `json:"status"`
	SarpanchReply *string    `json:"sarpanch_reply"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at"`
}
