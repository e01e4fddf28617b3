package ledger

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reserver claims a caller-supplied transaction id for the duration of the
// reuse window, closing the race between two concurrent creators that both
// pass the database check.
type Reserver interface {
	Reserve(ctx context.Context, transactionID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, transactionID string) error
}

type redisReserver struct {
	client *redis.Client
}

// NewRedisReserver constructs a redis-backed Reserver using SET NX EX.
func NewRedisReserver(client *redis.Client) Reserver {
	return &redisReserver{client: client}
}

// ReservationKeyPrefix namespaces transaction-id claims in redis. The worker
// scans this prefix when pruning redundant reservations.
const ReservationKeyPrefix = "ledger:txid:"

func reservationKey(transactionID string) string {
	return ReservationKeyPrefix + transactionID
}

func (r *redisReserver) Reserve(ctx context.Context, transactionID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, reservationKey(transactionID), 1, ttl).Result()
}

func (r *redisReserver) Release(ctx context.Context, transactionID string) error {
	return r.client.Del(ctx, reservationKey(transactionID)).Err()
}

// NopReserver accepts every reservation; used when redis is unavailable and
// the database window query stands alone.
type NopReserver struct{}

func (NopReserver) Reserve(ctx context.Context, transactionID string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (NopReserver) Release(ctx context.Context, transactionID string) error {
	return nil
}
