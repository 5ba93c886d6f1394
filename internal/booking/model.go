package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/clinic-booking/internal/patient"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ValidStatus reports whether s is one of the three lifecycle statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// MaxNotesLen bounds the free-text notes attached to a booking.
const MaxNotesLen = 500

// Booking is a patient's claim on one slot. A slot may be referenced by many
// bookings over time but by at most one confirmed booking at any moment.
type Booking struct {
	ID        uuid.UUID
	SlotID    uuid.UUID
	PatientID uuid.UUID
	Status    Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Detail is a booking joined with its slot and patient summary.
type Detail struct {
	Booking
	Slot    *slot.Slot
	Patient *patient.Summary
}

// Actor identifies the caller of a lifecycle operation. Patients may only
// cancel their own bookings; admins may act on any.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

func (a Actor) canCancel(b *Booking) bool {
	return a.Admin || a.ID == b.PatientID
}
