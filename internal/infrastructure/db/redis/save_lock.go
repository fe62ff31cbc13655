package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSaveLockTTL = 30 * time.Second

// releaseScript deletes the lock only when it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// SaveLock keeps a single change per citizen draft in flight.
// Key format: wizard:save:<user_id>, value: holder token.
type SaveLock struct {
	client lockClient
	ttl    time.Duration
}

// NewSaveLock creates a SaveLock. The TTL bounds how long a crashed holder
// can keep the lock.
func NewSaveLock(client lockClient, ttl time.Duration) *SaveLock {
	if ttl <= 0 {
		ttl = defaultSaveLockTTL
	}
	return &SaveLock{client: client, ttl: ttl}
}

// Acquire reports ok=false when another holder has the user's lock.
func (l *SaveLock) Acquire(ctx context.Context, userID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, saveLockKey(userID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("save lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release is a no-op once the lock expired and passed to another holder.
func (l *SaveLock) Release(ctx context.Context, userID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{saveLockKey(userID)}, token).Err(); err != nil {
		return fmt.Errorf("save lock release: %w", err)
	}
	return nil
}

func saveLockKey(userID string) string {
	return "wizard:save:" + userID
}
