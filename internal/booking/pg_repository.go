package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicbook/clinic-booking/internal/patient"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const bookingColumns = `id, slot_id, patient_id, status, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var notes *string

	err := row.Scan(
		&b.ID,
		&b.SlotID,
		&b.PatientID,
		&b.Status,
		&notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if notes != nil {
		b.Notes = *notes
	}
	return &b, nil
}

func isConfirmedSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_bookings_confirmed_slot"
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ClaimSlot is the sole serialization point for concurrent claims: a
// conditional hold on the slot row plus the confirmed-booking insert, in one
// transaction. The partial unique index on confirmed bookings backs the
// check across connections that have not yet seen each other's writes.
func (r *PgRepository) ClaimSlot(ctx context.Context, slotID, patientID uuid.UUID, notes string) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE slots
		SET booked = TRUE,
		    updated_at = now()
		WHERE id = $1
		  AND booked = FALSE
	`, slotID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, slot.ErrNotFound
		}
		return nil, ErrSlotTaken
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, slot_id, patient_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, 'confirmed', $4, now(), now())
		RETURNING `+bookingColumns+`
	`, uuid.New(), slotID, patientID, nullableText(notes))

	b, err := scanBooking(row)
	if err != nil {
		if isConfirmedSlotViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) CancelAndRelease(ctx context.Context, id uuid.UUID) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'cancelled'
		RETURNING `+bookingColumns+`
	`, id)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrInvalidState
			}
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The previous status was confirmed or completed, both of which hold the
	// slot, so the release is unconditional.
	if _, err := tx.Exec(ctx, `
		UPDATE slots
		SET booked = FALSE,
		    updated_at = now()
		WHERE id = $1
	`, b.SlotID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) CompleteConfirmed(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'completed',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'confirmed'
		RETURNING `+bookingColumns+`
	`, id)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrInvalidState
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) ReclaimForBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'confirmed',
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'confirmed'
		RETURNING `+bookingColumns+`
	`, id)

	b, err := scanBooking(row)
	if err != nil {
		if isConfirmedSlotViolation(err) {
			return nil, ErrSlotTaken
		}
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrInvalidState
			}
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The unique index just guaranteed we are the only confirmed booking for
	// the slot; holding a slot that is already held (completed bookings keep
	// it) is fine, so no condition here.
	if _, err := tx.Exec(ctx, `
		UPDATE slots
		SET booked = TRUE,
		    updated_at = now()
		WHERE id = $1
	`, b.SlotID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

const detailColumns = `
	b.id, b.slot_id, b.patient_id, b.status, b.notes, b.created_at, b.updated_at,
	s.id, s.start_at, s.end_at, s.booked, s.created_at, s.updated_at,
	p.id, p.name, p.email, p.role`

const detailFrom = `
	FROM bookings b
	JOIN slots s ON s.id = b.slot_id
	JOIN patients p ON p.id = b.patient_id`

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	var notes *string
	var sl slot.Slot
	var ps patient.Summary

	err := row.Scan(
		&d.ID, &d.SlotID, &d.PatientID, &d.Status, &notes, &d.CreatedAt, &d.UpdatedAt,
		&sl.ID, &sl.StartAt, &sl.EndAt, &sl.Booked, &sl.CreatedAt, &sl.UpdatedAt,
		&ps.ID, &ps.Name, &ps.Email, &ps.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if notes != nil {
		d.Notes = *notes
	}
	d.Slot = &sl
	d.Patient = &ps
	return &d, nil
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.db.QueryRow(ctx, `SELECT`+detailColumns+detailFrom+`
		WHERE b.id = $1
	`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	rows, err := r.db.Query(ctx, `SELECT`+detailColumns+detailFrom+`
		WHERE b.patient_id = $1
		ORDER BY b.created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Detail, error) {
	rows, err := r.db.Query(ctx, `SELECT`+detailColumns+detailFrom+`
		ORDER BY b.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]Detail, error) {
	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
