package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ruserwation/core"
)

// DefaultRedisKeyPrefix namespaces session keys.
const DefaultRedisKeyPrefix = "ruserwation:session:"

// RedisSessionStore keeps sessions as JSON values with a Redis TTL equal to
// the session lifetime. Redis expiry removes stale keys; Get also compares
// ExpiresAt against the store clock so an expired session is reported as
// core.ErrSessionExpired exactly like the memory store.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	now    core.Clock
}

var _ core.SessionStore = (*RedisSessionStore)(nil)

// NewRedisClient connects to addr and pings it within two seconds.
func NewRedisClient(cfg core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisSessionStore wraps an existing client. An empty prefix uses
// DefaultRedisKeyPrefix and a nil clock uses time.Now.
func NewRedisSessionStore(client *redis.Client, prefix string, clock core.Clock) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &RedisSessionStore{client: client, prefix: prefix, now: clock}
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}

// minKeyTTL keeps keys for sessions created already expired from living
// forever; Redis treats a zero expiration as none.
const minKeyTTL = time.Second

// Create stores a new session for username that expires ttl from now. SETNX
// guards against id reuse.
func (s *RedisSessionStore) Create(ctx context.Context, username string, ttl time.Duration) (string, error) {
	id, err := core.GenerateSessionID()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(core.NewSession(id, username, s.now(), ttl))
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	keyTTL := ttl
	if keyTTL < minKeyTTL {
		keyTTL = minKeyTTL
	}
	ok, err := s.client.SetNX(ctx, s.key(id), data, keyTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("session id collision")
	}
	return id, nil
}

// Get loads a session, deleting it when its ExpiresAt has passed.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (core.Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Session{}, core.ErrSessionNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return core.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.IsExpiredAt(s.now()) {
		if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
			return core.Session{}, fmt.Errorf("failed to evict expired session: %w", err)
		}
		return core.Session{}, core.ErrSessionExpired
	}
	return session, nil
}

// Destroy deletes a session key. Missing keys are not an error.
func (s *RedisSessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// NewSessionStore builds the backend named by cfg.Session.Store. The returned
// ping is nil for the memory store; closeFn is always safe to call.
func NewSessionStore(cfg *core.Config, clock core.Clock) (store core.SessionStore, ping func(context.Context) error, closeFn func() error, err error) {
	switch cfg.Session.Store {
	case core.SessionStoreMemory, "":
		return NewMemorySessionStore(clock), nil, func() error { return nil }, nil
	case core.SessionStoreRedis:
		client, err := NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		rs := NewRedisSessionStore(client, cfg.Redis.KeyPrefix, clock)
		return rs, rs.Ping, rs.Close, nil
	default:
		return nil, nil, nil, core.ErrUnsupportedStore(cfg.Session.Store)
	}
}
