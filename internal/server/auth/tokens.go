// Package auth issues and verifies the signed session tokens and hashes
// account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates access tokens from refresh tokens. It is carried in
// the "typ" claim.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
	ErrWrongKind    = errors.New("token kind mismatch")
	ErrEmptySecret  = errors.New("signing secret is empty")
)

// Claims is the claim set of every token minted by TokenManager.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Kind  TokenKind   `json:"typ"`
}

// TokenPair is what a successful login or refresh hands to the client.
// ExpiresIn is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Verifier is the read side of TokenManager, used by the HTTP guard.
type Verifier interface {
	Verify(token string, kind TokenKind) (*Claims, error)
}

// TokenManager signs and verifies HS256 tokens with a single process-wide
// secret.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

var _ Verifier = (*TokenManager)(nil)

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive: access=%s refresh=%s", accessTTL, refreshTTL)
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// SetClock replaces the time source. Tests only.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// AccessTTL is the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *TokenManager) ttl(kind TokenKind) time.Duration {
	if kind == KindRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

// Issue mints a token of the given kind for u.
func (m *TokenManager) Issue(u *models.User, kind TokenKind) (string, time.Time, error) {
	if kind != KindAccess && kind != KindRefresh {
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}

	now := m.now()
	exp := now.Add(m.ttl(kind))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Email: u.Email,
		Role:  u.Role,
		Kind:  kind,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssuePair mints an access and a refresh token for u.
func (m *TokenManager) IssuePair(u *models.User) (TokenPair, error) {
	access, _, err := m.Issue(u, KindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := m.Issue(u, KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL / time.Second),
	}, nil
}

// Verify checks signature, algorithm, issuer, expiry and kind. Failures are
// one of ErrMalformed, ErrBadSignature, ErrExpired or ErrWrongKind, wrapping
// the underlying jwt error.
func (m *TokenManager) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongKind, claims.Kind, kind)
	}

	return claims, nil
}

// Reason is a short label for a verification failure, used in logs and
// metrics. It never leaves the server.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrWrongKind):
		return "wrong_kind"
	default:
		return "malformed"
	}
}
