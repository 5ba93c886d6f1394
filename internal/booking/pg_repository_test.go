package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/clinic-booking/internal/slot"
)

func newMockRepo(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgRepository(mock), mock
}

func bookingRow(id, slotID, patientID uuid.UUID, status Status) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "slot_id", "patient_id", "status", "notes", "created_at", "updated_at"}).
		AddRow(id, slotID, patientID, status, (*string)(nil), now, now)
}

func TestClaimSlotCommitsHoldAndInsert(t *testing.T) {
	repo, mock := newMockRepo(t)
	slotID, patientID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), slotID, patientID, pgxmock.AnyArg()).
		WillReturnRows(bookingRow(uuid.New(), slotID, patientID, StatusConfirmed))
	mock.ExpectCommit()

	b, err := repo.ClaimSlot(context.Background(), slotID, patientID, "checkup")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, slotID, b.SlotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimSlotAlreadyHeld(t *testing.T) {
	repo, mock := newMockRepo(t)
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(slotID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.ClaimSlot(context.Background(), slotID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimSlotMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(slotID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.ClaimSlot(context.Background(), slotID, uuid.New(), "")
	assert.ErrorIs(t, err, slot.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimSlotLosesUniqueRace(t *testing.T) {
	repo, mock := newMockRepo(t)
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), slotID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_bookings_confirmed_slot"})
	mock.ExpectRollback()

	_, err := repo.ClaimSlot(context.Background(), slotID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAndReleaseCommitsBothWrites(t *testing.T) {
	repo, mock := newMockRepo(t)
	id, slotID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings").
		WithArgs(id).
		WillReturnRows(bookingRow(id, slotID, uuid.New(), StatusCancelled))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	b, err := repo.CancelAndRelease(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAndReleaseAlreadyCancelled(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.CancelAndRelease(context.Background(), id)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteConfirmedWrongState(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE bookings").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.CompleteConfirmed(context.Background(), id)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReclaimForBookingLosesUniqueRace(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings").
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_bookings_confirmed_slot"})
	mock.ExpectRollback()

	_, err := repo.ReclaimForBooking(context.Background(), id)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
