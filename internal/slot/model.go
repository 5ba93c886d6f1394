package slot

import (
	"time"

	"github.com/google/uuid"
)

// Duration is the fixed length of every bookable slot.
const Duration = 30 * time.Minute

// Slot is a fixed 30-minute bookable interval. Booked mirrors whether a
// confirmed or completed booking currently holds it.
type Slot struct {
	ID        uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
	Booked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
