package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
)

// Session is a refresh-token session. Only a sha256 hash of the refresh
// token is stored; the token itself never touches the database.
type Session struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// SessionRepository handles session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// HashToken returns the storage form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	query := `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		session.ID, session.UserID, session.TokenHash,
		session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.CreatedAt)

	return err
}

// GetActiveByTokenHash returns the live session matching a token hash.
// Revoked and expired sessions are treated as not found.
func (r *SessionRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var session Session
	query := `
		SELECT id, user_id, token_hash, user_agent, ip_address, expires_at, created_at, revoked_at
		FROM sessions
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`

	err := r.db.GetContext(ctx, &session, query, tokenHash)
	if err == sql.ErrNoRows {
		return nil, errors.TokenInvalid()
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// Rotate revokes the old session and creates the replacement in one
// transaction, so a crashed rotation never leaves two live sessions.
func (r *SessionRepository) Rotate(ctx context.Context, oldID string, next *Session) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, oldID,
		); err != nil {
			return err
		}

		if next.ID == "" {
			next.ID = uuid.New().String()
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO sessions (id, user_id, token_hash, user_agent, ip_address, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING created_at
		`, next.ID, next.UserID, next.TokenHash, next.UserAgent, next.IPAddress, next.ExpiresAt,
		).Scan(&next.CreatedAt)
	})
}

// Revoke revokes a single session
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// RevokeAllForUser revokes every live session of a user
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteExpired removes sessions past their expiry, returning the count
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
