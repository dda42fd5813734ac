package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gamehub-api/internal/model"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix is the Redis key namespace for sessions.
const redisKeyPrefix = "gamehub:session:"

// RedisStore is a Redis-backed implementation of Store for deployments
// with more than one API instance. Expiry is delegated to Redis TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis session store and verifies connectivity.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Create stores the session under a fresh token with the store TTL.
func (s *RedisStore) Create(ctx context.Context, data model.SessionData) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	data.CreatedAt = time.Now()
	data.ExpiresAt = data.CreatedAt.Add(s.ttl)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+token, jsonData, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Get retrieves a session by token.
func (s *RedisStore) Get(ctx context.Context, token string) (*model.SessionData, error) {
	if !validToken(token) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		s.client.Del(ctx, redisKeyPrefix+token)
		return nil, ErrSessionNotFound
	}

	return &data, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisKeyPrefix+token).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
