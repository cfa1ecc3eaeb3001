package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no user exists for the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrExists indicates a user with the same email is already registered.
	ErrExists = errors.New("user already exists")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	MarkVerified(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, email, name, password_hash, email_verified, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, NormalizeEmail(user.Email), user.Name, user.PasswordHash, user.EmailVerified, user.CreatedAt.UTC())
	return err
}

// FindByEmail fetches a user by normalized email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, name, password_hash, email_verified, created_at
        FROM users WHERE email = $1`, NormalizeEmail(email))
	return scanUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, name, password_hash, email_verified, created_at
        FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// MarkVerified flips the email_verified flag for an existing user.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET email_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Email, &user.Name, &user.PasswordHash, &user.EmailVerified, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
