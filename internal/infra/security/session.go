package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidSession is returned when a session token fails signature or claim checks.
	ErrInvalidSession = errors.New("security: invalid session token")
	// ErrExpiredSession is returned when a session token is past its expiry.
	ErrExpiredSession = errors.New("security: session token expired")
)

// SessionClaims are the claims carried by a signed session token.
type SessionClaims struct {
	AccountID string `json:"uid"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies HS256 session tokens with a shared secret.
type SessionIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer builds an issuer. The secret must be non-empty and the TTL positive.
func NewSessionIssuer(secret, issuer string, ttl time.Duration) (*SessionIssuer, error) {
	if secret == "" {
		return nil, errors.New("security: session secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("security: session ttl must be positive, got %s", ttl)
	}

	return &SessionIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock overrides the issuer clock. Intended for tests.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// TTL reports the configured session lifetime.
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session token for the account and returns it with its expiry.
func (s *SessionIssuer) Issue(accountID string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, errors.New("security: account id must not be empty")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := SessionClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("security: sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies a session token and returns its claims.
// Expired tokens map to ErrExpiredSession; every other failure maps to ErrInvalidSession.
func (s *SessionIssuer) Parse(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSession
		}
		return nil, ErrInvalidSession
	}

	if !token.Valid || claims.AccountID == "" {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
