// Package project tracks public works projects per village and ward.
package project

import (
	"time"

	"github.com/google/uuid"
)

// Status of a project.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusPlanned, StatusOngoing, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Project is one public works project. Photos is an ordered list of URLs.
type Project struct {
	ID            uuid.UUID  `json:"id"`
	VillageID     uuid.UUID  `json:"village_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	WardNumber    int        `json:"ward_number"`
	EstimatedCost float64    `json:"estimated_cost"`
	ActualCost    float64    `json:"actual_cost"`
	Status        Status     `json:"status"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Photos        []string   `json:"photos"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
