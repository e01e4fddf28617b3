package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTrashSweep purges trash records older than the retention window.
	TaskTrashSweep = "trash:sweep"
	// TaskReservationCleanup drops redis transaction-id claims that are no
	// longer needed because the database row already landed.
	TaskReservationCleanup = "ledger:reservation_cleanup"
)

// TrashSweepPayload carries the retention window for a sweep run.
type TrashSweepPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewTrashSweepTask constructs a trash sweep task.
func NewTrashSweepTask(payload TrashSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrashSweep, data), nil
}

// TrashPurger removes trash rows older than a cutoff.
type TrashPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewTrashSweepHandler builds the handler for TaskTrashSweep.
func NewTrashSweepHandler(purger TrashPurger, defaultRetention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TrashSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		retention := payload.Retention
		if retention <= 0 {
			retention = defaultRetention
		}
		purged, err := purger.PurgeOlderThan(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		logger.Info("trash sweep complete",
			slog.Int64("purged", purged),
			slog.Duration("retention", retention))
		return nil
	}
}

// ReservationCleanupPayload carries the reuse window for a cleanup run.
type ReservationCleanupPayload struct {
	Window time.Duration `json:"window"`
}

// NewReservationCleanupTask constructs a reservation cleanup task.
func NewReservationCleanupTask(payload ReservationCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationCleanup, data), nil
}

// TransactionWindowChecker reports whether a transaction id has been recorded
// inside the reuse window.
type TransactionWindowChecker interface {
	TransactionIDUsedSince(ctx context.Context, transactionID string, since time.Time) (bool, error)
}

// NewReservationCleanupHandler builds the handler for TaskReservationCleanup.
// Claims whose ledger row already exists are redundant: the database window
// query is authoritative once the insert lands, so the key only wastes memory.
// Keys that lost their TTL are dropped outright.
func NewReservationCleanupHandler(client *redis.Client, checker TransactionWindowChecker, window time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReservationCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Window > 0 {
			window = payload.Window
		}
		since := time.Now().Add(-window)

		var dropped int
		iter := client.Scan(ctx, 0, ledger.ReservationKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			transactionID := strings.TrimPrefix(key, ledger.ReservationKeyPrefix)

			ttl, err := client.TTL(ctx, key).Result()
			if err != nil {
				return err
			}
			if ttl == -1 {
				if err := client.Del(ctx, key).Err(); err != nil {
					return err
				}
				dropped++
				continue
			}

			used, err := checker.TransactionIDUsedSince(ctx, transactionID, since)
			if err != nil {
				return err
			}
			if used {
				if err := client.Del(ctx, key).Err(); err != nil {
					return err
				}
				dropped++
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		logger.Info("reservation cleanup complete", slog.Int("dropped", dropped))
		return nil
	}
}
