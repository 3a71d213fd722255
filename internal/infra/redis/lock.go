// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"afk-code-redeemer/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker serializes redemption runs per account. A second run against the
// same account would race the remote rate limits and the ledger write-back.
type Locker interface {
	TryLock(ctx context.Context, accountID string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, accountID, token string) error
}

type RedisLocker struct {
	cli *redis.Client
}

var _ Locker = (*RedisLocker)(nil)

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

func lockKey(accountID string) string { return "run_lock:" + accountID }

func (l *RedisLocker) TryLock(ctx context.Context, accountID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, lockKey(accountID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrRunInProgress
	}
	return token, nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, accountID, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{lockKey(accountID)}, token).Result()
	return err
}
