package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds how long NewClient keeps retrying the first PING.
const connectTimeout = 3 * time.Second

// NewClient parses redisURL and returns a client once the server answers a
// PING. Startup races with the redis container are absorbed by a short
// exponential backoff.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := Ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// Ping checks that the server is reachable, retrying until connectTimeout.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = connectTimeout

	err := backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}
