package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists subscriptions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed subscription ledger.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const subscriptionColumns = `user_id, plan_name, remaining_seconds, price, currency, expires_at, gateway_order_id, gateway_payment_id`

// Find returns the subscription row for the user, or ErrNoSubscription.
func (r *PostgresRepository) Find(ctx context.Context, userID string) (Subscription, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Subscription{}, ErrNoSubscription
	}
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, uid)
	return scanSubscription(row)
}

// Merge applies a reconciled payment inside a single transaction. The user
// row is locked with FOR UPDATE so the idempotency check and the
// read-modify-write of remaining_seconds are safe under concurrent retries.
func (r *PostgresRepository) Merge(ctx context.Context, in MergeInput) (Subscription, error) {
	uid, err := uuid.Parse(in.UserID)
	if err != nil {
		return Subscription{}, fmt.Errorf("parse user id: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Subscription{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 FOR UPDATE`, uid)
	var prev *Subscription
	existing, err := scanSubscription(row)
	switch {
	case err == nil:
		prev = &existing
	case errors.Is(err, ErrNoSubscription):
	default:
		return Subscription{}, err
	}

	if prev != nil && prev.GatewayPaymentID == in.PaymentID {
		// Retried callback: commit with no writes.
		if err := tx.Commit(ctx); err != nil {
			return Subscription{}, err
		}
		return *prev, nil
	}

	next := merged(prev, in)
	_, err = tx.Exec(ctx, `INSERT INTO subscriptions (`+subscriptionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (user_id) DO UPDATE SET
            plan_name = EXCLUDED.plan_name,
            remaining_seconds = EXCLUDED.remaining_seconds,
            price = EXCLUDED.price,
            currency = EXCLUDED.currency,
            expires_at = EXCLUDED.expires_at,
            gateway_order_id = EXCLUDED.gateway_order_id,
            gateway_payment_id = EXCLUDED.gateway_payment_id`,
		uid, next.PlanName, next.RemainingSeconds, next.Price, next.Currency,
		next.ExpiresAt.UTC(), next.GatewayOrderID, next.GatewayPaymentID)
	if err != nil {
		return Subscription{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Subscription{}, err
	}
	return next, nil
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var (
		uid uuid.UUID
		sub Subscription
	)
	if err := row.Scan(&uid, &sub.PlanName, &sub.RemainingSeconds, &sub.Price, &sub.Currency,
		&sub.ExpiresAt, &sub.GatewayOrderID, &sub.GatewayPaymentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}
	sub.UserID = uid.String()
	sub.ExpiresAt = sub.ExpiresAt.UTC()
	return sub, nil
}
