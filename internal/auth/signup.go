package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/cracked-app/cracked_api/internal/identity"
	"github.com/cracked-app/cracked_api/internal/notification"
	"github.com/cracked-app/cracked_api/internal/store"
)

// RequestSignup starts the verification flow: it parks the registrant in a
// pending record and emails a one-time code. The durable user is not created
// until the code is confirmed. Repeated requests while a pending record is
// live succeed without re-sending, so repeated submits cannot spam OTPs or
// silently replace the credentials being verified.
func (s *Service) RequestSignup(ctx context.Context, email, name, password string) error {
	email = identity.NormalizeEmail(email)
	if email == "" || name == "" || password == "" {
		return ErrInvalidRequest
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, identity.ErrNotFound) {
		return fmt.Errorf("find user: %w", err)
	}

	passwordHash, err := identity.HashSecret(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.issueVerification(ctx, email, name, passwordHash)
}

// ConfirmVerification completes the pending → verified transition. On success
// the pending record is consumed, the durable user is upserted and a session
// is issued exactly as for a plain login.
func (s *Service) ConfirmVerification(ctx context.Context, email, code, deviceType string) (LoginResult, error) {
	email = identity.NormalizeEmail(email)
	if email == "" || code == "" || deviceType == "" {
		return LoginResult{}, ErrInvalidRequest
	}
	device, err := ParseDeviceType(deviceType)
	if err != nil {
		return LoginResult{}, err
	}

	record, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrCodeExpiredOrInvalid
		}
		return LoginResult{}, fmt.Errorf("get pending verification: %w", err)
	}
	if !identity.VerifySecret(record.OTPHash, code) {
		return LoginResult{}, ErrCodeExpiredOrInvalid
	}

	if err := s.pending.Delete(ctx, email); err != nil {
		return LoginResult{}, fmt.Errorf("delete pending verification: %w", err)
	}

	user, err := s.upsertVerifiedUser(ctx, record)
	if err != nil {
		return LoginResult{}, err
	}

	return s.issueSession(ctx, user, device)
}

// upsertVerifiedUser reconciles the two ways a user can come to exist: created
// fresh from the pending record, or already durable but unverified from an
// earlier path.
func (s *Service) upsertVerifiedUser(ctx context.Context, record store.PendingVerification) (identity.User, error) {
	user, err := s.users.FindByEmail(ctx, record.Email)
	if err == nil {
		if !user.EmailVerified {
			if err := s.users.MarkVerified(ctx, user.ID); err != nil {
				return identity.User{}, fmt.Errorf("mark verified: %w", err)
			}
			user.EmailVerified = true
		}
		return user, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, fmt.Errorf("find user: %w", err)
	}

	user = identity.User{
		ID:            uuid.NewString(),
		Email:         record.Email,
		Name:          record.Name,
		PasswordHash:  record.PasswordHash,
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return identity.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// issueVerification writes the pending record and dispatches the code. The
// SetIfAbsent keeps at most one live record per email, so concurrent requests
// produce exactly one dispatch and the code being verified never changes
// under the registrant.
func (s *Service) issueVerification(ctx context.Context, email, name string, passwordHash []byte) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	codeHash, err := identity.HashSecret(code)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	stored, err := s.pending.SetIfAbsent(ctx, store.PendingVerification{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		OTPHash:      codeHash,
	}, s.verifyTTL)
	if err != nil {
		return fmt.Errorf("store pending verification: %w", err)
	}
	if !stored {
		return nil
	}

	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindEmailVerification,
		Destination: email,
		Name:        name,
		Code:        code,
	})
	return nil
}

// generateCode returns a fixed-width 5-digit numeric code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", n.Int64()+10000), nil
}
