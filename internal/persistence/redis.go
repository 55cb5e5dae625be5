package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/organization-service/internal/config"
)

func errNotConfigured(name string) error {
	return errors.New(name + " client not configured")
}

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errNotConfigured("redis")
	}
	return r.Client.Ping(ctx).Err()
}

const rosterKeyPrefix = "roster:specialty:"

// GetRoster returns the cached roster payload for a specialty, if present.
func (r *Redis) GetRoster(ctx context.Context, specialtyID string) ([]byte, bool) {
	if r == nil || r.Client == nil {
		return nil, false
	}
	payload, err := r.Client.Get(ctx, rosterKeyPrefix+specialtyID).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// SetRoster stores a roster payload with the given TTL. Best effort.
func (r *Redis) SetRoster(ctx context.Context, specialtyID string, payload []byte, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return errNotConfigured("redis")
	}
	return r.Client.Set(ctx, rosterKeyPrefix+specialtyID, payload, ttl).Err()
}

// InvalidateRoster drops the cached roster for a specialty. Best effort.
func (r *Redis) InvalidateRoster(ctx context.Context, specialtyID string) error {
	if r == nil || r.Client == nil {
		return errNotConfigured("redis")
	}
	return r.Client.Del(ctx, rosterKeyPrefix+specialtyID).Err()
}
