package billing

import (
	"context"
	"errors"
	"time"
)

// ErrNoSubscription indicates the user has never completed a purchase.
var ErrNoSubscription = errors.New("no subscription")

// Subscription is the durable time-credit balance for a user. It is mutated
// only through Merge.
type Subscription struct {
	UserID           string
	PlanName         string
	RemainingSeconds int64
	Price            int64
	Currency         string
	ExpiresAt        time.Time
	GatewayOrderID   string
	GatewayPaymentID string
}

// MergeInput carries one reconciled payment into the ledger.
type MergeInput struct {
	UserID    string
	OrderID   string
	PaymentID string
	Plan      Plan
	Now       time.Time
}

// Repository is the subscription ledger. Merge must be atomic per user row:
// the idempotency check, carry-forward read and upsert happen inside one
// transaction so concurrent webhook deliveries cannot double-credit.
type Repository interface {
	Find(ctx context.Context, userID string) (Subscription, error)
	// Merge applies the payment exactly once. A payment ID equal to the one
	// already stored commits without writes. Unexpired remaining seconds are
	// carried forward; expired balance is forfeited. The validity window
	// always restarts at Now.
	Merge(ctx context.Context, in MergeInput) (Subscription, error)
}

// merged computes the post-merge row from the previous row (if any) shared by
// both backends once the row is locked.
func merged(prev *Subscription, in MergeInput) Subscription {
	var carryForward int64
	if prev != nil && prev.ExpiresAt.After(in.Now) {
		carryForward = prev.RemainingSeconds
	}
	return Subscription{
		UserID:           in.UserID,
		PlanName:         in.Plan.Name,
		RemainingSeconds: carryForward + in.Plan.CreditSeconds,
		Price:            in.Plan.Price,
		Currency:         in.Plan.Currency,
		ExpiresAt:        in.Now.Add(time.Duration(in.Plan.ValidityDays) * 24 * time.Hour),
		GatewayOrderID:   in.OrderID,
		GatewayPaymentID: in.PaymentID,
	}
}
