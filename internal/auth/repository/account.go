package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
)

// Account is an authentication principal. Accounts live outside tenant
// scope: login happens before any company context exists.
type Account struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// AccountRepository handles account persistence
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByEmail gets an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	query := `
		SELECT id, email, password_hash, name, is_active, created_at, updated_at, last_login_at
		FROM accounts
		WHERE lower(email) = lower($1)
	`

	err := r.db.GetContext(ctx, &account, query, email)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("account")
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetByID gets an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	query := `
		SELECT id, email, password_hash, name, is_active, created_at, updated_at, last_login_at
		FROM accounts
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &account, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("account")
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Name, account.IsActive,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if mapped := database.MapPQError(err); mapped != nil {
		return mapped
	}
	return err
}

// TouchLastLogin records a successful login
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE accounts SET last_login_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
