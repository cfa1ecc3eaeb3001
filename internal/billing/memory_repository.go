package billing

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu   sync.Mutex
	rows map[string]Subscription
}

// NewMemoryRepository creates a concurrency-safe in-memory subscription
// ledger useful for unit tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{rows: make(map[string]Subscription)}
}

func (r *memoryRepository) Find(_ context.Context, userID string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.rows[userID]
	if !ok {
		return Subscription{}, ErrNoSubscription
	}
	return sub, nil
}

func (r *memoryRepository) Merge(_ context.Context, in MergeInput) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *Subscription
	if existing, ok := r.rows[in.UserID]; ok {
		if existing.GatewayPaymentID == in.PaymentID {
			return existing, nil
		}
		prev = &existing
	}

	next := merged(prev, in)
	r.rows[in.UserID] = next
	return next, nil
}
