package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest indicates missing callback fields or plan code.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidSignature indicates the payment claim failed the HMAC check.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidPlan indicates an unknown plan code.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrPlanStillActive blocks purchases while unexpired credit remains.
	ErrPlanStillActive = errors.New("plan still active")
	// ErrVerificationFailed covers any failure inside the reconcile
	// transaction; the merge is all-or-nothing.
	ErrVerificationFailed = errors.New("verification failed")
)

// SessionChecker resolves a bearer token to a user ID. Satisfied by
// auth.Service.CheckSession.
type SessionChecker interface {
	CheckSession(ctx context.Context, token string) (string, error)
}

// Service validates payment callbacks and reconciles them into the
// subscription ledger.
type Service struct {
	repo     Repository
	gateway  Gateway
	sessions SessionChecker
	secret   []byte
	now      func() time.Time
}

// NewService builds the reconciliation engine. secret is the gateway key
// secret used both for order creation auth and callback signatures.
func NewService(repo Repository, gateway Gateway, sessions SessionChecker, secret string) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		sessions: sessions,
		secret:   []byte(secret),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder requests a gateway order for the plan's server-computed amount.
// A user holding unexpired credit may not buy again until it runs out.
func (s *Service) CreateOrder(ctx context.Context, bearer, planCode string) (Order, error) {
	userID, err := s.sessions.CheckSession(ctx, bearer)
	if err != nil {
		return Order{}, err
	}

	plan, ok := PlanByCode(planCode)
	if !ok {
		return Order{}, ErrInvalidPlan
	}

	existing, err := s.repo.Find(ctx, userID)
	if err != nil && !errors.Is(err, ErrNoSubscription) {
		return Order{}, fmt.Errorf("find subscription: %w", err)
	}
	if err == nil && existing.ExpiresAt.After(s.now()) && existing.RemainingSeconds > 0 {
		return Order{}, ErrPlanStillActive
	}

	receipt := fmt.Sprintf("receipt_%d", s.now().UnixMilli())
	order, err := s.gateway.CreateOrder(ctx, plan.Price*100, plan.Currency, receipt)
	if err != nil {
		return Order{}, fmt.Errorf("gateway order: %w", err)
	}
	return order, nil
}

// ReconcileInput is the payment callback as relayed by the client.
type ReconcileInput struct {
	OrderID   string
	PaymentID string
	Signature string
	PlanCode  string
	Bearer    string
}

// Reconcile validates the callback's authenticity and merges the purchased
// credit into the ledger exactly once per payment ID.
func (s *Service) Reconcile(ctx context.Context, in ReconcileInput) (Subscription, error) {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" || in.PlanCode == "" {
		return Subscription{}, ErrInvalidRequest
	}

	userID, err := s.sessions.CheckSession(ctx, in.Bearer)
	if err != nil {
		return Subscription{}, err
	}

	if !s.verifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return Subscription{}, ErrInvalidSignature
	}

	plan, ok := PlanByCode(in.PlanCode)
	if !ok {
		return Subscription{}, ErrInvalidPlan
	}

	sub, err := s.repo.Merge(ctx, MergeInput{
		UserID:    userID,
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Plan:      plan,
		Now:       s.now(),
	})
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	return sub, nil
}

// verifySignature recomputes HMAC-SHA256(secret, orderID|paymentID) and
// compares it to the supplied hex signature in constant time.
func (s *Service) verifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), supplied)
}
