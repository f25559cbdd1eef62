// Package store: Redis session backend.
//
// Sessions are stored as JSON values with a native Redis TTL, so expiry
// needs no sweeper at all. Leads are not kept in Redis; pair this backend
// with a SQL or in-memory LeadStore.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parleyhq/parley/internal/models"
)

const redisSessionKeyPrefix = "parley:session:"

// RedisSessionStore keeps sessions in Redis.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to Redis at the DSN address (host:port or a
// redis:// URL) and verifies the connection.
func NewRedisSessionStore(ctx context.Context, opts ...Option) (*RedisSessionStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("RedisSessionStore DSN not set")
		return nil, fmt.Errorf("redis address not set")
	}

	var client *redis.Client
	if redisOpts, err := redis.ParseURL(cfg.DSN); err == nil {
		client = redis.NewClient(redisOpts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.DSN})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed", "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	ttl := cfg.sessionTTL()
	slog.Info("RedisSessionStore connected", "session_ttl", ttl)
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string {
	return redisSessionKeyPrefix + id
}

func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		session := models.NewSession(id)
		if err := s.PutSession(ctx, session); err != nil {
			return nil, err
		}
		slog.Debug("RedisSessionStore created session", "session", id)
		return session, nil
	}
	if err != nil {
		slog.Error("RedisSessionStore GetSession failed", "error", err, "session", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Unreadable state self-heals to a fresh session.
		slog.Warn("RedisSessionStore found malformed session, resetting", "session", id, "error", err)
		fresh := models.NewSession(id)
		if err := s.PutSession(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	return &session, nil
}

func (s *RedisSessionStore) PutSession(ctx context.Context, session *models.Session) error {
	session.LastUpdated = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		slog.Error("RedisSessionStore PutSession failed", "error", err, "session", session.ID)
		return fmt.Errorf("failed to put session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		slog.Error("RedisSessionStore DeleteSession failed", "error", err, "session", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
