package identity

import (
	"strings"
	"time"
)

// User represents a registered account. Users are only created once their
// email ownership has been confirmed, or explicitly as unverified by a
// migration/import path; login refuses unverified accounts either way.
type User struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  []byte
	EmailVerified bool
	CreatedAt     time.Time
}

// NormalizeEmail lower-cases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
