package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// SeenStore is the dedup-window contract ingesters depend on: record a
// hash, later ask whether it was already seen. SeenWindow (in-memory) and
// RedisSeenWindow are the two implementations.
type SeenStore interface {
	Seen(hash string) bool
	Record(hash string)
}

// RedisSeenWindow is a Redis-backed SeenStore, used in place of the
// in-memory SeenWindow when REDIS_ADDR is configured: it survives process
// restarts and can be shared across multiple ingester instances, unlike
// the in-process cache.
type RedisSeenWindow struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSeenWindow returns a RedisSeenWindow backed by the Redis server
// at addr, with entries expiring after ttl.
func NewRedisSeenWindow(addr string, ttl time.Duration) *RedisSeenWindow {
	return &RedisSeenWindow{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		prefix: "nodestatus:seen:",
	}
}

// Seen reports whether hash has already been recorded, treating a Redis
// error as not-seen so a transient outage degrades to re-processing rather
// than silently dropping events.
func (w *RedisSeenWindow) Seen(hash string) bool {
	n, err := w.client.Exists(context.Background(), w.prefix+hash).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Record marks hash as seen for the window's TTL.
func (w *RedisSeenWindow) Record(hash string) {
	w.client.Set(context.Background(), w.prefix+hash, 1, w.ttl)
}

// Close releases the underlying Redis connection pool.
func (w *RedisSeenWindow) Close() error {
	return w.client.Close()
}
