package auth

import (
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"time"
)

const issuer = "family-portal"

const (
	KindAdmin    = "admin"
	KindPasscode = "passcode"
)

// SessionClaims is what a session token carries. The JWT id doubles as the
// audit row id in the sessions table.
type SessionClaims struct {
	Kind  string `json:"kind"`
	Level int    `json:"level,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the given session id.
func (s *SessionIssuer) Issue(id, kind string, level int) (string, error) {
	now := s.now()
	claims := SessionClaims{
		Kind:  kind,
		Level: level,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    issuer,
			Subject:   kind,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Verify parses token and checks signature, expiry, issuer and kind.
func (s *SessionIssuer) Verify(token, kind string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s session, got %s", ErrInvalidSession, kind, claims.Kind)
	}
	return claims, nil
}
