package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds. The kind claim keeps a reset token from being presented
// as an access token and vice versa.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
	TokenKindReset   = "reset"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by every token this service signs.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
}

// TokenIssuer signs and parses HMAC-SHA256 tokens with an injected secret.
type TokenIssuer struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	resetTokenTTL   time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		resetTokenTTL:   resetTTL,
	}
}

// IssueAccessToken mints the short-lived bearer token presented on each
// API call. Stateless; nothing is persisted.
func (ti *TokenIssuer) IssueAccessToken(userID uint, email string) (string, error) {
	return ti.sign(userID, email, TokenKindAccess, ti.accessTokenTTL)
}

// IssueRefreshToken mints the long-lived token and returns its expiry so
// the caller can persist a matching server-side record.
func (ti *TokenIssuer) IssueRefreshToken(userID uint, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(ti.refreshTokenTTL)
	token, err := ti.sign(userID, email, TokenKindRefresh, ti.refreshTokenTTL)
	return token, expiresAt, err
}

// IssueResetToken mints the short-lived password-reset token bound to
// the user id and email.
func (ti *TokenIssuer) IssueResetToken(userID uint, email string) (string, error) {
	return ti.sign(userID, email, TokenKindReset, ti.resetTokenTTL)
}

func (ti *TokenIssuer) sign(userID uint, email, kind string, ttl time.Duration) (string, error) {
	// IssuedAt/ExpiresAt have second granularity and HS256 is
	// deterministic; the jti keeps two tokens minted within the same
	// second distinct, so concurrent logins persist separate sessions.
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
		Kind:   kind,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Parse validates the signature, expiry and kind of a token and returns
// its claims.
func (ti *TokenIssuer) Parse(tokenString, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
