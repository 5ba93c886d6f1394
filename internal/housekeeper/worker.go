package housekeeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	redisclient "github.com/clinicbook/clinic-booking/internal/redis"
)

// LockKey serializes housekeeping passes across instances.
const LockKey = "lock:housekeeper"

// Worker periodically repairs slot/booking inconsistencies and purges slots
// whose start is older than the retention window.
type Worker struct {
	store     Store
	locker    redisclient.Locker
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewWorker(store Store, locker redisclient.Locker, retention time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		store:     store,
		locker:    locker,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes passes on the given interval until ctx is done. The first
// pass runs immediately.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	w.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("housekeeper stopping")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	err := w.locker.WithLock(ctx, LockKey, func(lockCtx context.Context) error {
		return w.Pass(lockCtx)
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		// Another instance owns this pass.
		w.logger.Debug("housekeeping pass skipped, lock held elsewhere")
		return
	}
	if err != nil {
		w.logger.Error("housekeeping pass failed", zap.Error(err))
	}
}

// Pass runs one repair-then-purge cycle.
func (w *Worker) Pass(ctx context.Context) error {
	released, err := w.store.ReleaseOrphanedSlots(ctx)
	if err != nil {
		return fmt.Errorf("release orphaned slots: %w", err)
	}
	if released > 0 {
		w.logger.Warn("released slots left held by incomplete cancellations", zap.Int64("count", released))
	}

	cutoff := w.now().Add(-w.retention)
	purged, err := w.store.PurgeStaleSlots(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge stale slots: %w", err)
	}
	if purged > 0 {
		w.logger.Info("purged stale slots", zap.Int64("count", purged), zap.Time("cutoff", cutoff))
	}

	return nil
}
