package redislock

import (
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsTTL(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	assert.Equal(t, DefaultTTL, New(client, 0).ttl)
	assert.Equal(t, time.Minute, New(client, time.Minute).ttl)
	assert.Equal(t, "matching:run:week-1", Key("week-1"))
}
