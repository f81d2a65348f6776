package store

import (
	"context"
	"time"
)

// TokenStore is the refresh-token ledger. Rows are inserted on issue and
// soft-revoked on rotation, never deleted.
type TokenStore struct {
	db DB
}

func NewTokenStore(db DB) *TokenStore {
	return &TokenStore{db: db}
}

type RefreshToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt any        `db:"created_at"`
}

func (t RefreshToken) ValidAt(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

func (s *TokenStore) Create(ctx context.Context, tx Execer, id, userID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, tokenHash, expiresAt)
	return err
}

// GetByHash returns the row even when it is revoked or expired; callers
// decide whether a revoked match means reuse of a rotated secret.
func (s *TokenStore) GetByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	var row RefreshToken
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return RefreshToken{}, err
	}
	return row, nil
}

// Revoke marks a token consumed. The revoked_at IS NULL guard makes the
// rotation single-use: only one caller can win the update.
func (s *TokenStore) Revoke(ctx context.Context, tx Execer, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
