package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seed(t *testing.T, repo Repository, email string, verified bool) User {
	t.Helper()
	hash, err := HashSecret("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := User{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          "Test",
		PasswordHash:  hash,
		EmailVerified: verified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create: %v", err)
	}
	return user
}

func TestMemoryRepositoryLookupIsCaseInsensitive(t *testing.T) {
	repo := NewMemoryRepository()
	user := seed(t, repo, "Mixed@Case.com", true)

	found, err := repo.FindByEmail(context.Background(), "mixed@case.COM")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, found.ID)
	}
}

func TestMemoryRepositoryDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, "a@x.com", true)

	err := repo.Create(context.Background(), User{ID: uuid.NewString(), Email: "A@X.com"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestMemoryRepositoryMarkVerified(t *testing.T) {
	repo := NewMemoryRepository()
	user := seed(t, repo, "a@x.com", false)

	if err := repo.MarkVerified(context.Background(), user.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	found, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !found.EmailVerified {
		t.Fatalf("user not marked verified")
	}

	if err := repo.MarkVerified(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifySecret(t *testing.T) {
	hash, err := HashSecret("pass1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifySecret(hash, "pass1234") {
		t.Fatalf("correct secret rejected")
	}
	if VerifySecret(hash, "pass1235") {
		t.Fatalf("wrong secret accepted")
	}
}
