package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := NormalizeEmail(user.Email)
	if _, exists := r.users[email]; exists {
		return ErrExists
	}
	user.Email = email
	r.users[email] = user
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, user := range r.users {
		if user.ID == id {
			user.EmailVerified = true
			r.users[email] = user
			return nil
		}
	}
	return ErrNotFound
}
