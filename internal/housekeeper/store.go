package housekeeper

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store holds the cross-table repair and purge queries. They live here
// rather than on the registry or the ledger because each needs to see both
// slots and bookings at once.
type Store interface {
	// ReleaseOrphanedSlots frees held slots that no confirmed or completed
	// booking references. This closes the one recognized inconsistent state:
	// a cancellation whose slot release never landed.
	ReleaseOrphanedSlots(ctx context.Context) (int64, error)
	// PurgeStaleSlots deletes slots that started before the cutoff and are
	// referenced only by cancelled bookings, if any. Cascades remove those
	// cancelled rows.
	PurgeStaleSlots(ctx context.Context, before time.Time) (int64, error)
}

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	db DB
}

func NewPgStore(db DB) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) ReleaseOrphanedSlots(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE slots s
		SET booked = FALSE,
		    updated_at = now()
		WHERE s.booked = TRUE
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      WHERE b.slot_id = s.id
		        AND b.status IN ('confirmed', 'completed')
		  )
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) PurgeStaleSlots(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM slots s
		WHERE s.start_at < $1
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      WHERE b.slot_id = s.id
		        AND b.status <> 'cancelled'
		  )
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
