// Package document manages village document uploads (certificates, meeting
// minutes, budget reports) and their metadata.
package document

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a document.
type Type string

const (
	TypeCertificate    Type = "certificate"
	TypeNotice         Type = "notice"
	TypeBudgetReport   Type = "budget_report"
	TypeMeetingMinutes Type = "meeting_minutes"
	TypeOther          Type = "other"
)

var AllTypes = []Type{TypeCertificate, TypeNotice, TypeBudgetReport, TypeMeetingMinutes, TypeOther}

func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Document is the stored metadata; the file itself lives behind FileURL,
// an opaque blob reference.
type Document struct {
	ID         uuid.UUID `json:"id"`
	VillageID  uuid.UUID `json:"village_id"`
	Title      string    `json:"title"`
	FileURL    string    `json:"file_url"`
	Type       Type      `json:"type"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
