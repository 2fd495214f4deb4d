// Package redislock serialises generation runs across processes with a Redis key per prompt.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
)

const (
	keyPrefix  = "matching:run:"
	DefaultTTL = 15 * time.Minute
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

var _ matching.Locker = (*Locker)(nil)

// New returns a locker whose keys expire after ttl, so a crashed run cannot hold a prompt forever.
func New(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{client: client, ttl: ttl}
}

func Key(promptKey string) string {
	return keyPrefix + promptKey
}

func (l *Locker) Acquire(ctx context.Context, promptKey string) (func(context.Context) error, error) {
	key := Key(promptKey)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return nil, matching.ErrRunInProgress
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("releasing run lock: %w", err)
		}
		return nil
	}, nil
}
