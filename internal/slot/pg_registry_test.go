package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRegistry(t *testing.T) (*PgRegistry, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgRegistry(mock), mock
}

var slotColumns = []string{"id", "start_at", "end_at", "booked", "created_at", "updated_at"}

func TestGetReturnsSlot(t *testing.T) {
	reg, mock := newMockRegistry(t)
	id := uuid.New()
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM slots").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(slotColumns).
			AddRow(id, start, start.Add(Duration), false, start, start))

	s, err := reg.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, start, s.StartAt)
	assert.False(t, s.Booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	reg, mock := newMockRegistry(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM slots").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := reg.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAvailable(t *testing.T) {
	reg, mock := newMockRegistry(t)
	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	first, second := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM slots").
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows(slotColumns).
			AddRow(first, from.Add(9*time.Hour), from.Add(9*time.Hour+Duration), false, from, from).
			AddRow(second, from.Add(10*time.Hour), from.Add(10*time.Hour+Duration), false, from, from))

	slots, err := reg.ListAvailable(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, first, slots[0].ID)
	assert.Equal(t, second, slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkHeldAlreadyHeld(t *testing.T) {
	reg, mock := newMockRegistry(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE slots").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err := reg.MarkHeld(context.Background(), id)
	assert.ErrorIs(t, err, ErrAlreadyHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkHeldMissingSlot(t *testing.T) {
	reg, mock := newMockRegistry(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE slots").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	err := reg.MarkHeld(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkHeldSucceeds(t *testing.T) {
	reg, mock := newMockRegistry(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE slots").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, reg.MarkHeld(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAvailableMissingSlot(t *testing.T) {
	reg, mock := newMockRegistry(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE slots").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := reg.MarkAvailable(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}
