package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested key is absent or its TTL has elapsed.
var ErrNotFound = errors.New("key not found")

// PendingVerification is the ephemeral record written at signup and consumed
// on OTP confirmation. Only hashes are stored, never the raw code.
type PendingVerification struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash []byte `json:"password_hash"`
	OTPHash      []byte `json:"otp_hash"`
}

// SessionStore holds at most one live bearer token per (user, device type)
// pair. Entries expire server-side after the TTL passed at creation.
type SessionStore interface {
	// SetIfAbsent stores the token only when no live session exists for the
	// pair. It reports whether the token was stored, making the
	// single-session check race-free.
	SetIfAbsent(ctx context.Context, userID, deviceType, token string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, userID, deviceType string) (string, error)
	Delete(ctx context.Context, userID, deviceType string) error
}

// PendingStore holds at most one live pending-verification record per email.
type PendingStore interface {
	// SetIfAbsent writes the record only when no live record exists for the
	// email, collapsing repeated signup attempts into a single OTP dispatch.
	SetIfAbsent(ctx context.Context, record PendingVerification, ttl time.Duration) (bool, error)
	Get(ctx context.Context, email string) (PendingVerification, error)
	Delete(ctx context.Context, email string) error
}

func sessionKey(userID, deviceType string) string {
	return fmt.Sprintf("session:%s:%s", userID, deviceType)
}

func verifyKey(email string) string {
	return fmt.Sprintf("verify:%s", email)
}
