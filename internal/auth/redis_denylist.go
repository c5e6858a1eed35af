package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDenylist stores revoked token IDs in redis with a TTL matching the
// token's remaining lifetime, so revocations survive restarts and are shared
// across instances.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist connects to redis and verifies the connection.
func NewRedisDenylist(ctx context.Context, addr string, db int) (*RedisDenylist, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisDenylist{client: client}, nil
}

// Revoke marks the token ID revoked until the given time. Tokens already past
// expiry are rejected by signature verification, so nothing is stored for them.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denyKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether the token ID is currently revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, denyKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the redis connection.
func (d *RedisDenylist) Close() error {
	return d.client.Close()
}

func denyKey(jti string) string {
	return "revoked_token:" + jti
}
