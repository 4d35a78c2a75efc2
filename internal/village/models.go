// Package village manages the village registry. Every other resource in the
// portal is scoped to a village, so deleting one cascades through all of its
// dependent records in a fixed order.
package village

import (
	"time"

	"github.com/google/uuid"
)

// Village is the root scoping entity of the portal.
type Village struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	District  string    `json:"district"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	CreatedAt time.Time `json:"created_at"`
}
