package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"athletichub/internal/logger"
)

const defaultLockTTL = 30 * time.Second

// Lock is a per-(event, participant) SetNX lock. It only narrows the window
// in which two identical Book calls both do QR work; correctness does not
// depend on it.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{Client: client, TTL: ttl, Logger: log}
}

func lockKey(eventID, email string) string {
	return fmt.Sprintf("booking_lock:%s:%s", eventID, email)
}

// Acquire takes the lock for a booking pair. The owner token protects
// Release against deleting a lock someone else re-acquired after expiry.
func (l *Lock) Acquire(ctx context.Context, eventID, email, owner string) (bool, error) {
	ok, err := l.Client.SetNX(ctx, lockKey(eventID, email), owner, l.TTL).Result()
	return ok, err
}

func (l *Lock) Release(ctx context.Context, eventID, email, owner string) error {
	key := lockKey(eventID, email)

	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err := l.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
