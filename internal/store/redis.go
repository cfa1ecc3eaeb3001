package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements SessionStore on a shared Redis instance.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// SetIfAbsent stores the token under session:<userId>:<deviceType> with the
// provided TTL using SET NX, so concurrent logins cannot both win.
func (s *RedisSessionStore) SetIfAbsent(ctx context.Context, userID, deviceType, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, sessionKey(userID, deviceType), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set session: %w", err)
	}
	return ok, nil
}

// Get returns the stored token for the pair, or ErrNotFound when the session
// is absent or expired.
func (s *RedisSessionStore) Get(ctx context.Context, userID, deviceType string) (string, error) {
	token, err := s.client.Get(ctx, sessionKey(userID, deviceType)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return token, nil
}

// Delete removes the session. Deleting an absent key is a no-op.
func (s *RedisSessionStore) Delete(ctx context.Context, userID, deviceType string) error {
	if err := s.client.Del(ctx, sessionKey(userID, deviceType)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RedisPendingStore implements PendingStore on a shared Redis instance,
// storing records as JSON under verify:<email>.
type RedisPendingStore struct {
	client *redis.Client
}

// NewRedisPendingStore builds a Redis-backed pending-verification store.
func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

// SetIfAbsent writes the record with the provided TTL unless a live record
// already exists for the email.
func (s *RedisPendingStore) SetIfAbsent(ctx context.Context, record PendingVerification, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("encode pending verification: %w", err)
	}
	ok, err := s.client.SetNX(ctx, verifyKey(record.Email), payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set pending verification: %w", err)
	}
	return ok, nil
}

// Get returns the live record for the email, or ErrNotFound.
func (s *RedisPendingStore) Get(ctx context.Context, email string) (PendingVerification, error) {
	payload, err := s.client.Get(ctx, verifyKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingVerification{}, ErrNotFound
	}
	if err != nil {
		return PendingVerification{}, fmt.Errorf("get pending verification: %w", err)
	}
	var record PendingVerification
	if err := json.Unmarshal(payload, &record); err != nil {
		return PendingVerification{}, fmt.Errorf("decode pending verification: %w", err)
	}
	return record, nil
}

// Delete removes the record. Deleting an absent key is a no-op.
func (s *RedisPendingStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, verifyKey(email)).Err(); err != nil {
		return fmt.Errorf("delete pending verification: %w", err)
	}
	return nil
}
