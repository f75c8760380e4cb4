package stripe

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const eventKeyPrefix = "stripe:event:"

// RedisEventStore is the durable EventStore implementation. The claim is a
// single SET NX, so concurrent deliveries of the same event id race on the
// Redis side and exactly one wins.
type RedisEventStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisEventStore creates a Redis-backed event store.
func NewRedisEventStore(client *goredis.Client, ttl time.Duration) *RedisEventStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisEventStore{
		client: client,
		ttl:    ttl,
	}
}

// Claim reserves the event id via SET NX.
func (r *RedisEventStore) Claim(ctx context.Context, eventID string) (bool, error) {
	claimed, err := r.client.SetNX(ctx, eventKeyPrefix+eventID, time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cannot claim event %s: %w", eventID, err)
	}
	return claimed, nil
}

// Release frees a claimed event id.
func (r *RedisEventStore) Release(ctx context.Context, eventID string) error {
	if err := r.client.Del(ctx, eventKeyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("cannot release event %s: %w", eventID, err)
	}
	return nil
}
