package slot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("slot not found")
	ErrAlreadyHeld = errors.New("slot already held")
)

// Registry owns the set of bookable intervals and their availability flag.
// It is a leaf component: it knows nothing about bookings. Correctness under
// concurrent claims is not its job; the booking ledger composes the hold with
// the booking insert in one storage transaction.
type Registry interface {
	Get(ctx context.Context, id uuid.UUID) (*Slot, error)
	// ListAvailable returns free slots whose start falls within [from, to],
	// ordered by start time ascending. Range-size limits are the caller's
	// concern.
	ListAvailable(ctx context.Context, from, to time.Time) ([]Slot, error)
	// MarkHeld flips the flag to held. ErrAlreadyHeld if it already is.
	MarkHeld(ctx context.Context, id uuid.UUID) error
	// MarkAvailable releases the slot. Idempotent.
	MarkAvailable(ctx context.Context, id uuid.UUID) error
}
