package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cracked-app/cracked_api/internal/identity"
	"github.com/cracked-app/cracked_api/internal/notification"
	"github.com/cracked-app/cracked_api/internal/store"
)

// SubscriptionSummary is the slice of subscription state returned with a
// login. Zero values mean no subscription exists yet.
type SubscriptionSummary struct {
	PlanName         string
	RemainingSeconds int64
	ExpiresAt        time.Time
}

// SubscriptionSource supplies the summary without coupling auth to the
// billing package.
type SubscriptionSource interface {
	SummaryFor(ctx context.Context, userID string) (SubscriptionSummary, error)
}

// Service orchestrates login, logout, session checks and the signup
// verification flow against the expiring stores.
type Service struct {
	users     identity.Repository
	sessions  store.SessionStore
	pending   store.PendingStore
	tokens    *TokenIssuer
	notifier  notification.Notifier
	subs      SubscriptionSource
	verifyTTL time.Duration
}

// NewService wires the session manager. subs may be nil, in which case login
// responses carry a zero subscription summary.
func NewService(users identity.Repository, sessions store.SessionStore, pending store.PendingStore,
	tokens *TokenIssuer, notifier notification.Notifier, subs SubscriptionSource, verifyTTL time.Duration) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		pending:   pending,
		tokens:    tokens,
		notifier:  notifier,
		subs:      subs,
		verifyTTL: verifyTTL,
	}
}

// LoginResult carries the minted token together with a snapshot of the
// account and its subscription.
type LoginResult struct {
	Token        string
	ExpiresIn    int64
	User         identity.User
	Subscription SubscriptionSummary
}

// Login authenticates the credentials and creates a session for the device.
// Unknown email and wrong password return the same error; unverified accounts
// trigger OTP issuance instead of a session.
func (s *Service) Login(ctx context.Context, email, password, deviceType string) (LoginResult, error) {
	email = identity.NormalizeEmail(email)
	if email == "" || password == "" || deviceType == "" {
		return LoginResult{}, ErrInvalidRequest
	}
	device, err := ParseDeviceType(deviceType)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if !identity.VerifySecret(user.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		if err := s.issueVerification(ctx, user.Email, user.Name, user.PasswordHash); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{}, ErrEmailNotVerified
	}

	return s.issueSession(ctx, user, device)
}

// Logout revokes the session named by the token. Decoding failure is the only
// error; deleting an absent session is a no-op, so logging out twice succeeds.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.UserID, claims.DeviceType); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CheckSession verifies the token cryptographically and then against the
// session store. The stored value must equal the presented token verbatim:
// logout or a competing login invalidates every copy of the old token even
// though it has not expired.
func (s *Service) CheckSession(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return "", err
	}

	stored, err := s.sessions.Get(ctx, claims.UserID, claims.DeviceType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrSessionExpired
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	if stored != token {
		return "", ErrSessionExpired
	}
	return claims.UserID, nil
}

// issueSession is the shared session-issuance tail of login and verification:
// mint a token and claim the device slot with a TTL equal to the token
// lifetime. Losing the SetIfAbsent race means another session is live.
func (s *Service) issueSession(ctx context.Context, user identity.User, device string) (LoginResult, error) {
	token, ttl, err := s.tokens.Issue(user.ID, device)
	if err != nil {
		return LoginResult{}, err
	}

	stored, err := s.sessions.SetIfAbsent(ctx, user.ID, device, token, ttl)
	if err != nil {
		return LoginResult{}, fmt.Errorf("store session: %w", err)
	}
	if !stored {
		return LoginResult{}, ErrAlreadyLoggedIn
	}

	result := LoginResult{
		Token:     token,
		ExpiresIn: int64(ttl.Seconds()),
		User:      user,
	}
	if s.subs != nil {
		if summary, err := s.subs.SummaryFor(ctx, user.ID); err == nil {
			result.Subscription = summary
		}
	}
	return result, nil
}
