package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("booking not found")
	// ErrSlotTaken means another confirmed booking holds the slot, or the
	// claimant lost the race for it.
	ErrSlotTaken = errors.New("slot already booked")
)

// Repository contains the durable operations the ledger needs. Claim,
// CancelAndRelease and ReclaimForBooking are each a single storage
// transaction: the slot flag and the booking row move together or not at all.
type Repository interface {
	// ClaimSlot atomically holds the slot and inserts a confirmed booking.
	// Returns ErrSlotTaken if the slot is held or a confirmed booking already
	// references it; a missing slot comes back as slot.ErrNotFound.
	ClaimSlot(ctx context.Context, slotID, patientID uuid.UUID, notes string) (*Booking, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	// CancelAndRelease sets status to cancelled and frees the slot in one
	// transaction. ErrNotFound if absent; nil booking with no error never
	// happens. A booking already cancelled yields zero rows and ErrNotFound
	// from the conditional update, which callers pre-empt with a state check.
	CancelAndRelease(ctx context.Context, id uuid.UUID) (*Booking, error)

	// CompleteConfirmed moves confirmed to completed. The slot stays held.
	CompleteConfirmed(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ReclaimForBooking re-confirms a terminal booking, re-holding its slot.
	// The partial unique index rejects it with ErrSlotTaken if another
	// confirmed booking got there first.
	ReclaimForBooking(ctx context.Context, id uuid.UUID) (*Booking, error)

	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error)
	ListAll(ctx context.Context) ([]Detail, error)
}
