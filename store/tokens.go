package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/models"
)

// RefreshTokenStore persists issued refresh tokens so presented tokens
// can be checked against the sessions that actually issued them.
type RefreshTokenStore struct {
	db DBTX
}

func NewRefreshTokenStore(db DBTX) *RefreshTokenStore {
	return &RefreshTokenStore{db: db}
}

// Create records a freshly issued token and returns the session row.
func (s *RefreshTokenStore) Create(ctx context.Context, userID uint, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`,
		userID, token, expiresAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.RefreshToken{
		ID:        uint(id),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Find returns the live session matching the (user, token) pair. A token
// with a valid signature but no matching row was issued to a different
// session or has been revoked; that is ErrTokenNotRecognized.
func (s *RefreshTokenStore) Find(ctx context.Context, userID uint, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens
		 WHERE user_id = ? AND token = ? AND expires_at > ?`,
		userID, token, time.Now()).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotRecognized
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeAllForUser deletes every outstanding session for the user, e.g.
// after a password reset.
func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uint) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return err
}

// DeleteExpired removes stale rows. Login runs it opportunistically so
// the table does not accumulate dead sessions.
func (s *RefreshTokenStore) DeleteExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, time.Now())
	return err
}
