package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis wraps the redis client used for rate limiting and event fan-out
type Redis struct {
	Client *redis.Client
}

// New creates a new redis client from a URL
func New(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Info().Msg("Redis connection established")

	return &Redis{Client: client}, nil
}

// Close closes the redis connection
func (r *Redis) Close() error {
	return r.Client.Close()
}

// Health checks if redis is reachable
func (r *Redis) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
