package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/clinicbook/clinic-booking/internal/redis"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

var (
	ErrSlotInPast    = errors.New("slot start is not in the future")
	ErrAccessDenied  = errors.New("not allowed to act on this booking")
	ErrInvalidState  = errors.New("booking is not in a state that allows this transition")
	ErrInvalidStatus = errors.New("unknown booking status")
	ErrNotesTooLong  = errors.New("notes exceed maximum length")
)

// Service is the booking ledger: it enforces the one-confirmed-booking-per-
// slot invariant and drives the booking lifecycle against the slot registry.
type Service struct {
	repo   Repository
	slots  slot.Registry
	locker redisclient.Locker
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, slots slot.Registry, locker redisclient.Locker, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		slots:  slots,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Claim creates a confirmed booking for the patient while marking the slot
// held, as one unit. A per-slot Redis lock sheds concurrent claimants early;
// the database transaction in the repository is the authoritative gate, so
// losing either layer of the race yields ErrSlotTaken.
func (s *Service) Claim(ctx context.Context, patientID, slotID uuid.UUID, notes string) (*Detail, error) {
	if len(notes) > MaxNotesLen {
		return nil, ErrNotesTooLong
	}

	sl, err := s.slots.Get(ctx, slotID)
	if err != nil {
		if errors.Is(err, slot.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	if !sl.StartAt.After(s.now()) {
		return nil, ErrSlotInPast
	}

	var created *Booking

	err = s.locker.WithLock(ctx, redisclient.SlotKey(slotID), func(lockCtx context.Context) error {
		b, err := s.repo.ClaimSlot(lockCtx, slotID, patientID, notes)
		if err != nil {
			return err
		}
		created = b
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			// Someone else is mid-claim on this slot; treat it as lost.
			return nil, ErrSlotTaken
		case errors.Is(err, redisclient.ErrLockUnavailable):
			// The lock only sheds contention early; the claim transaction is
			// the authoritative gate, so a dead lock backend does not stop
			// bookings.
			s.logger.Warn("slot lock unavailable, claiming without it", zap.Error(err))
			created, err = s.repo.ClaimSlot(ctx, slotID, patientID, notes)
			if err != nil {
				if errors.Is(err, ErrSlotTaken) || errors.Is(err, slot.ErrNotFound) {
					return nil, err
				}
				return nil, fmt.Errorf("claim slot: %w", err)
			}
		case errors.Is(err, ErrSlotTaken), errors.Is(err, slot.ErrNotFound):
			return nil, err
		default:
			return nil, fmt.Errorf("claim slot: %w", err)
		}
	}

	s.logger.Info("slot claimed",
		zap.String("booking_id", created.ID.String()),
		zap.String("slot_id", slotID.String()),
		zap.String("patient_id", patientID.String()),
	)

	detail, err := s.repo.GetDetail(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("load booking detail: %w", err)
	}
	return detail, nil
}

// Cancel moves a confirmed booking to cancelled and releases its slot. The
// status write and the slot release commit together.
func (s *Service) Cancel(ctx context.Context, actor Actor, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if !actor.canCancel(b) {
		return nil, ErrAccessDenied
	}

	if b.Status != StatusConfirmed {
		return nil, ErrInvalidState
	}

	updated, err := s.repo.CancelAndRelease(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("slot_id", updated.SlotID.String()),
		zap.Bool("by_admin", actor.Admin),
	)

	return updated, nil
}

// Complete marks a confirmed booking completed. The slot stays held: a
// completed appointment keeps its slot consumed.
func (s *Service) Complete(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	updated, err := s.repo.CompleteConfirmed(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("complete booking: %w", err)
	}

	s.logger.Info("booking completed", zap.String("booking_id", bookingID.String()))

	return updated, nil
}

// SetStatus is the admin overwrite path. Unlike the source system it routes
// each target through the side effects that keep the slot flag consistent:
// cancelling releases the slot, re-confirming re-claims it, completing
// requires a confirmed booking.
func (s *Service) SetStatus(ctx context.Context, bookingID uuid.UUID, status Status) (*Booking, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if b.Status == status {
		return b, nil
	}

	var updated *Booking
	switch status {
	case StatusCancelled:
		updated, err = s.repo.CancelAndRelease(ctx, bookingID)
	case StatusCompleted:
		updated, err = s.repo.CompleteConfirmed(ctx, bookingID)
	case StatusConfirmed:
		err = s.locker.WithLock(ctx, redisclient.SlotKey(b.SlotID), func(lockCtx context.Context) error {
			updated, err = s.repo.ReclaimForBooking(lockCtx, bookingID)
			return err
		})
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			err = ErrSlotTaken
		}
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("set booking status: %w", err)
	}

	s.logger.Info("booking status overridden",
		zap.String("booking_id", bookingID.String()),
		zap.String("from", string(b.Status)),
		zap.String("to", string(status)),
	)

	return updated, nil
}

// ListForPatient returns the patient's bookings, newest first, joined with
// slot and patient summaries.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	details, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list bookings for patient: %w", err)
	}
	return details, nil
}

// ListAll returns every booking, newest first. Admin scope.
func (s *Service) ListAll(ctx context.Context) ([]Detail, error) {
	details, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all bookings: %w", err)
	}
	return details, nil
}
