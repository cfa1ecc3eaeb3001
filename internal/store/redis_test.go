package store

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisSessionStoreSetIfAbsent(t *testing.T) {
	client, mr := setupRedis(t)
	sessions := NewRedisSessionStore(client)
	ctx := context.Background()

	ok, err := sessions.SetIfAbsent(ctx, "u1", "WEB", "token-a", time.Hour)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !ok {
		t.Fatal("expected first set to win")
	}

	ok, err = sessions.SetIfAbsent(ctx, "u1", "WEB", "token-b", time.Hour)
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if ok {
		t.Fatal("expected second set to lose")
	}

	got, err := sessions.Get(ctx, "u1", "WEB")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "token-a" {
		t.Fatalf("expected token-a, got %s", got)
	}

	// A different device type is an independent session slot.
	if ok, _ := sessions.SetIfAbsent(ctx, "u1", "DESKTOP", "token-c", time.Hour); !ok {
		t.Fatal("expected desktop session to be stored")
	}

	ttl := mr.TTL("session:u1:WEB")
	if ttl != time.Hour {
		t.Fatalf("expected 1h TTL, got %s", ttl)
	}
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	client, mr := setupRedis(t)
	sessions := NewRedisSessionStore(client)
	ctx := context.Background()

	if _, err := sessions.SetIfAbsent(ctx, "u1", "WEB", "token-a", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := sessions.Get(ctx, "u1", "WEB"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}

	// The slot is free again once the old session lapsed.
	if ok, _ := sessions.SetIfAbsent(ctx, "u1", "WEB", "token-b", time.Minute); !ok {
		t.Fatal("expected new session after expiry")
	}
}

func TestRedisSessionStoreDeleteIdempotent(t *testing.T) {
	client, _ := setupRedis(t)
	sessions := NewRedisSessionStore(client)
	ctx := context.Background()

	if err := sessions.Delete(ctx, "u1", "WEB"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	if _, err := sessions.SetIfAbsent(ctx, "u1", "WEB", "token-a", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := sessions.Delete(ctx, "u1", "WEB"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := sessions.Get(ctx, "u1", "WEB"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisPendingStoreRoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	pending := NewRedisPendingStore(client)
	ctx := context.Background()

	record := PendingVerification{
		Email:        "a@x.com",
		Name:         "A",
		PasswordHash: []byte("password-hash"),
		OTPHash:      []byte("otp-hash"),
	}

	ok, err := pending.SetIfAbsent(ctx, record, 15*time.Minute)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be stored")
	}

	// A second signup attempt must not replace the live record.
	replacement := record
	replacement.OTPHash = []byte("other-hash")
	if ok, _ := pending.SetIfAbsent(ctx, replacement, 15*time.Minute); ok {
		t.Fatal("expected live record to be kept")
	}

	got, err := pending.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "A" || string(got.OTPHash) != "otp-hash" {
		t.Fatalf("unexpected record: %+v", got)
	}

	mr.FastForward(16 * time.Minute)
	if _, err := pending.Get(ctx, "a@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}
