package notify

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisPinger checks that the queue broker answers. The readiness probe
// uses it when the asynq backend is active.
type RedisPinger struct {
	client *redis.Client
}

// NewRedisPinger opens a small client against the broker.
func NewRedisPinger(addr, password string, db int) *RedisPinger {
	return &RedisPinger{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 2,
	})}
}

// Ping returns nil when Redis replies to PING.
func (p *RedisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the client.
func (p *RedisPinger) Close() error { return p.client.Close() }
