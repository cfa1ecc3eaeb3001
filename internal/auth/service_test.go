package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cracked-app/cracked_api/internal/identity"
	"github.com/cracked-app/cracked_api/internal/notification"
	"github.com/cracked-app/cracked_api/internal/store"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *recordingNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1].Code
}

type testEnv struct {
	svc      *Service
	users    identity.Repository
	sessions store.SessionStore
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := identity.NewMemoryRepository()
	sessions := store.NewMemorySessionStore()
	pending := store.NewMemoryPendingStore()
	notifier := &recordingNotifier{}
	tokens := NewTokenIssuer("test-secret", time.Hour)
	svc := NewService(users, sessions, pending, tokens, notifier, nil, 15*time.Minute)
	return &testEnv{svc: svc, users: users, sessions: sessions, notifier: notifier}
}

func (e *testEnv) seedUser(t *testing.T, email, password string, verified bool) identity.User {
	t.Helper()
	hash, err := identity.HashSecret(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := identity.User{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          "Test",
		PasswordHash:  hash,
		EmailVerified: verified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestLoginSessionTTLMatchesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "a@x.com", "p", true)

	res, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected token")
	}
	if res.ExpiresIn != 3600 {
		t.Fatalf("expected 3600s lifetime, got %d", res.ExpiresIn)
	}

	stored, err := env.sessions.Get(ctx, user.ID, DeviceWeb)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored != res.Token {
		t.Fatal("stored session must equal the issued token")
	}

	ttl := store.SessionTTL(env.sessions, user.ID, DeviceWeb)
	if ttl <= 59*time.Minute || ttl > time.Hour {
		t.Fatalf("session TTL %s does not match token lifetime", ttl)
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "p", true)

	if _, err := env.svc.Login(context.Background(), "  A@X.COM ", "p", DeviceWeb); err != nil {
		t.Fatalf("login with unnormalized email: %v", err)
	}
}

func TestLoginInvalidCredentialsIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "p", true)
	ctx := context.Background()

	_, unknownErr := env.svc.Login(ctx, "nobody@x.com", "p", DeviceWeb)
	_, wrongErr := env.svc.Login(ctx, "a@x.com", "wrong", DeviceWeb)

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("errors must be identical to avoid user enumeration")
	}
}

func TestLoginRejectsUnknownDevice(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "p", true)

	if _, err := env.svc.Login(context.Background(), "a@x.com", "p", "MOBILE"); !errors.Is(err, ErrInvalidDevice) {
		t.Fatalf("expected ErrInvalidDevice, got %v", err)
	}
}

func TestLoginUnverifiedSendsOneOTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "p", false)
	ctx := context.Background()

	if _, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	// A second login while the pending record is live must not re-send.
	if _, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}

	if env.notifier.count() != 1 {
		t.Fatalf("expected exactly one OTP dispatch, got %d", env.notifier.count())
	}
}

func TestLoginSingleSessionPerDevice(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "p", true)
	ctx := context.Background()

	if _, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb); !errors.Is(err, ErrAlreadyLoggedIn) {
		t.Fatalf("expected ErrAlreadyLoggedIn, got %v", err)
	}
	// The other device class has its own slot.
	if _, err := env.svc.Login(ctx, "a@x.com", "p", DeviceDesktop); err != nil {
		t.Fatalf("desktop login: %v", err)
	}
}

func TestCheckSessionAfterLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "p", true)
	ctx := context.Background()

	res, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := env.svc.CheckSession(ctx, res.Token); err != nil {
		t.Fatalf("check live session: %v", err)
	}

	if err := env.svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.svc.CheckSession(ctx, res.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after logout, got %v", err)
	}

	// Logging out twice is not an error.
	if err := env.svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestCheckSessionRevokedByReplacement(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "a@x.com", "p", true)
	ctx := context.Background()

	first, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	// Simulate the first session lapsing and someone logging in again.
	store.ExpireSession(env.sessions, user.ID, DeviceWeb)
	second, err := env.svc.Login(ctx, "a@x.com", "p", DeviceWeb)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	// The old token still decodes but no longer matches the stored value.
	if _, err := env.svc.CheckSession(ctx, first.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired for replaced token, got %v", err)
	}
	if userID, err := env.svc.CheckSession(ctx, second.Token); err != nil || userID != user.ID {
		t.Fatalf("expected live second session, got %q %v", userID, err)
	}
}

func TestCheckSessionInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.CheckSession(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := env.svc.Logout(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
